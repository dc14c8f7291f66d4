// Package replay folds recorded traces back through a fresh session.
package replay

import (
	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
)

// Result is the session state reached by a replay.
type Result struct {
	Session *session.Session
	Applied int
	Ignored int
}

// Run replays actions in order. The session clock follows the recorded
// timestamps so clears re-stamp the origin where they happened.
func Run(info model.TraceInfo, actions []model.Action, opts ...session.Option) Result {
	c := clock.NewManual(info.OriginMs)
	s := session.New(c, opts...)
	res := Result{Session: s}
	for _, a := range actions {
		// A clear may follow a restart of the recording source's time base.
		if a.Kind == model.ActionClear {
			c.Rebase(a.TS)
		} else {
			c.Set(a.TS)
		}
		if s.Apply(a).Empty() {
			res.Ignored++
			continue
		}
		res.Applied++
	}
	return res
}
