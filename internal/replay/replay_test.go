package replay

import (
	"testing"

	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
)

func TestRunReproducesSession(t *testing.T) {
	info := model.TraceInfo{OriginMs: 0}
	actions := []model.Action{
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", TS: 100},
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", Repeat: true, TS: 150},
		{Kind: model.ActionPause, TS: 160},
		{Kind: model.ActionKeyDown, Key: "b", Code: "KeyB", TS: 170},
		{Kind: model.ActionResume, TS: 180},
		{Kind: model.ActionKeyUp, Key: "a", Code: "KeyA", TS: 300},
	}
	res := Run(info, actions)
	if res.Ignored != 1 || res.Applied != 5 {
		t.Fatalf("unexpected counts: applied=%d ignored=%d", res.Applied, res.Ignored)
	}
	s := res.Session
	if len(s.HeldKeys()) != 0 {
		t.Fatalf("expected no held keys")
	}
	if s.LogLen() != 3 {
		t.Fatalf("expected 3 log records, got %d", s.LogLen())
	}
	if got := s.RepeatCounts(); len(got) != 1 || got[0].Count != 1 {
		t.Fatalf("unexpected repeats: %+v", got)
	}
}

func TestRunClearRestampsOrigin(t *testing.T) {
	actions := []model.Action{
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", TS: 100},
		{Kind: model.ActionClear, TS: 2000},
		{Kind: model.ActionKeyDown, Key: "b", Code: "KeyB", TS: 2500},
	}
	res := Run(model.TraceInfo{OriginMs: 50}, actions, session.WithLogRows(10))
	s := res.Session
	if s.Origin() != 2000 {
		t.Fatalf("expected origin 2000, got %v", s.Origin())
	}
	log := s.Log()
	if len(log) != 1 || log[0].TSeconds != 0.5 || log[0].DeltaMs != nil {
		t.Fatalf("unexpected log after clear: %+v", log)
	}
}

func TestRunClearAcceptsRestartedTimeBase(t *testing.T) {
	actions := []model.Action{
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", TS: 9000},
		{Kind: model.ActionClear, TS: 40},
		{Kind: model.ActionKeyDown, Key: "b", Code: "KeyB", TS: 540},
	}
	s := Run(model.TraceInfo{}, actions).Session
	if s.Origin() != 40 {
		t.Fatalf("expected origin 40, got %v", s.Origin())
	}
	if log := s.Log(); len(log) != 1 || log[0].TSeconds != 0.5 {
		t.Fatalf("unexpected log: %+v", log)
	}
}
