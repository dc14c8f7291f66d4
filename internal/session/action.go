package session

import "github.com/verte-zerg/keyviz/internal/model"

// Apply dispatches a raw input or control action. Unknown kinds are ignored.
func (s *Session) Apply(a model.Action) Dirty {
	id := model.KeyIdentity{Key: a.Key, Code: a.Code}
	switch a.Kind {
	case model.ActionKeyDown:
		return s.OnKeyDown(id, a.Repeat, a.TS)
	case model.ActionKeyUp:
		return s.OnKeyUp(id, a.TS)
	case model.ActionPause:
		return s.SetPaused(true)
	case model.ActionResume:
		return s.SetPaused(false)
	case model.ActionClear:
		return s.Clear()
	default:
		return 0
	}
}
