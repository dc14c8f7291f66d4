package session

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/model"
)

var keyA = model.KeyIdentity{Key: "a", Code: "KeyA"}

func newTestSession(start float64, opts ...Option) (*Session, *clock.Manual) {
	c := clock.NewManual(start)
	return New(c, opts...), c
}

func TestScenarioFirstPress(t *testing.T) {
	s, _ := newTestSession(0)
	dirty := s.OnKeyDown(keyA, false, 100)
	if !dirty.Has(HeldKeysChanged | LogChanged) {
		t.Fatalf("expected held and log dirty, got %s", dirty)
	}
	if dirty.Has(PatternChanged) || dirty.Has(RepeatCountsChanged) {
		t.Fatalf("unexpected pattern/repeat dirty on first press: %s", dirty)
	}
	held := s.HeldKeys()
	want := []model.HeldKey{{Code: "KeyA", Key: "a", PressedAt: 100}}
	if !reflect.DeepEqual(held, want) {
		t.Fatalf("unexpected held keys: %+v", held)
	}
	log := s.Log()
	if len(log) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(log))
	}
	if log[0].DeltaMs != nil {
		t.Fatalf("expected nil delta for first record, got %d", *log[0].DeltaMs)
	}
	if log[0].TSeconds != 0.1 {
		t.Fatalf("expected t=0.1s, got %v", log[0].TSeconds)
	}
}

func TestScenarioRepeatThenRelease(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(keyA, false, 100)

	dirty := s.OnKeyDown(keyA, true, 150)
	if dirty.Has(HeldKeysChanged) {
		t.Fatalf("repeat must not touch held keys: %s", dirty)
	}
	if !dirty.Has(PatternChanged | RepeatCountsChanged | LogChanged) {
		t.Fatalf("expected pattern, repeats and log dirty, got %s", dirty)
	}
	if held := s.HeldKeys(); len(held) != 1 || held[0].PressedAt != 100 {
		t.Fatalf("repeat changed held keys: %+v", held)
	}
	repeats := s.RepeatCounts()
	if !reflect.DeepEqual(repeats, []model.RepeatRecord{{Code: "KeyA", Key: "a", Count: 1}}) {
		t.Fatalf("unexpected repeat counts: %+v", repeats)
	}
	if p := s.Pattern(); !reflect.DeepEqual(p, []string{"a"}) {
		t.Fatalf("unexpected pattern: %v", p)
	}
	log := s.Log()
	if len(log) != 2 {
		t.Fatalf("expected 2 log records, got %d", len(log))
	}
	if log[0].DeltaMs == nil || *log[0].DeltaMs != 50 {
		t.Fatalf("expected newest delta 50ms, got %v", log[0].DeltaMs)
	}
	if !log[0].Repeat {
		t.Fatalf("expected newest record flagged as repeat")
	}

	dirty = s.OnKeyUp(keyA, 300)
	if !dirty.Has(HeldKeysChanged | LogChanged) {
		t.Fatalf("expected held and log dirty on release, got %s", dirty)
	}
	if len(s.HeldKeys()) != 0 {
		t.Fatalf("expected no held keys after release")
	}
	if len(s.RepeatCounts()) != 1 || len(s.Pattern()) != 1 {
		t.Fatalf("release must not touch repeats or pattern")
	}
	log = s.Log()
	if len(log) != 3 {
		t.Fatalf("expected 3 log records, got %d", len(log))
	}
	if log[0].EventType != model.KeyUp || log[0].Repeat {
		t.Fatalf("unexpected newest record: %+v", log[0])
	}
	if *log[0].DeltaMs != 150 {
		t.Fatalf("expected delta 150ms, got %d", *log[0].DeltaMs)
	}
}

func TestDeltaRoundsToNearest(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(keyA, false, 10.2)
	s.OnKeyUp(keyA, 21)
	if got := *s.Log()[0].DeltaMs; got != 11 {
		t.Fatalf("expected rounded delta 11, got %d", got)
	}
}

func TestLogBoundKeepsNewest(t *testing.T) {
	s, _ := newTestSession(0)
	for i := 0; i < 301; i++ {
		id := model.KeyIdentity{Key: fmt.Sprintf("k%d", i), Code: fmt.Sprintf("Code%d", i)}
		if i%2 == 0 {
			s.OnKeyDown(id, false, float64(i))
		} else {
			s.OnKeyUp(id, float64(i))
		}
	}
	log := s.Log()
	if len(log) != DefaultLogRows {
		t.Fatalf("expected %d records, got %d", DefaultLogRows, len(log))
	}
	if log[0].Code != "Code300" {
		t.Fatalf("expected newest first, got %s", log[0].Code)
	}
	if log[len(log)-1].Code != "Code1" {
		t.Fatalf("expected oldest retained Code1, got %s", log[len(log)-1].Code)
	}
}

func TestPatternBoundEvictsOldest(t *testing.T) {
	s, _ := newTestSession(0)
	total := DefaultPatternLength + 5
	for i := 0; i < total; i++ {
		id := model.KeyIdentity{Key: fmt.Sprintf("F%d", i), Code: fmt.Sprintf("F%d", i)}
		s.OnKeyDown(id, true, float64(i))
		if n := len(s.Pattern()); n > DefaultPatternLength {
			t.Fatalf("pattern grew to %d", n)
		}
	}
	p := s.Pattern()
	if len(p) != DefaultPatternLength {
		t.Fatalf("expected %d labels, got %d", DefaultPatternLength, len(p))
	}
	if p[0] != "F5" {
		t.Fatalf("expected oldest retained F5, got %s", p[0])
	}
	if p[len(p)-1] != fmt.Sprintf("F%d", total-1) {
		t.Fatalf("expected newest label last, got %s", p[len(p)-1])
	}
}

func TestPatternLabelUsesRuneCount(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(model.KeyIdentity{Key: "é", Code: "Quote"}, true, 1)
	s.OnKeyDown(model.KeyIdentity{Key: "Shift", Code: "ShiftLeft"}, true, 2)
	if p := s.Pattern(); !reflect.DeepEqual(p, []string{"é", "ShiftLeft"}) {
		t.Fatalf("unexpected labels: %v", p)
	}
}

func TestRepeatCountsTrackLatestKeyAndOrder(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(model.KeyIdentity{Key: "a", Code: "KeyA"}, true, 1)
	s.OnKeyDown(model.KeyIdentity{Key: "A", Code: "KeyA"}, true, 2)
	s.OnKeyDown(model.KeyIdentity{Key: "c", Code: "KeyC"}, true, 3)
	s.OnKeyDown(model.KeyIdentity{Key: "b", Code: "KeyB"}, true, 4)
	s.OnKeyDown(model.KeyIdentity{Key: "x", Code: "KeyX"}, false, 5)

	got := s.RepeatCounts()
	want := []model.RepeatRecord{
		{Code: "KeyA", Key: "A", Count: 2},
		{Code: "KeyB", Key: "b", Count: 1},
		{Code: "KeyC", Key: "c", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected repeat counts: %+v", got)
	}
}

func TestHeldKeysSortedByPressTime(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(model.KeyIdentity{Key: "b", Code: "KeyB"}, false, 30)
	s.OnKeyDown(model.KeyIdentity{Key: "a", Code: "KeyA"}, false, 10)
	s.OnKeyDown(model.KeyIdentity{Key: "c", Code: "KeyC"}, false, 20)
	held := s.HeldKeys()
	codes := []string{held[0].Code, held[1].Code, held[2].Code}
	if !reflect.DeepEqual(codes, []string{"KeyA", "KeyC", "KeyB"}) {
		t.Fatalf("unexpected order: %v", codes)
	}
}

func TestActiveKeysMatchUnreleasedPresses(t *testing.T) {
	s, _ := newTestSession(0)
	events := []struct {
		down bool
		code string
	}{
		{true, "KeyA"}, {true, "KeyB"}, {true, "KeyA"}, {false, "KeyA"},
		{true, "KeyC"}, {false, "KeyZ"}, {false, "KeyB"}, {true, "KeyA"},
	}
	open := map[string]bool{}
	for i, ev := range events {
		id := model.KeyIdentity{Key: ev.code, Code: ev.code}
		if ev.down {
			s.OnKeyDown(id, open[ev.code], float64(i))
			open[ev.code] = true
		} else {
			s.OnKeyUp(id, float64(i))
			delete(open, ev.code)
		}
		for code := range open {
			if !s.IsHeld(code) {
				t.Fatalf("step %d: expected %s held", i, code)
			}
		}
		if len(s.HeldKeys()) != len(open) {
			t.Fatalf("step %d: expected %d held, got %d", i, len(open), len(s.HeldKeys()))
		}
	}
}

func TestReleaseOfUnheldKeyOnlyLogs(t *testing.T) {
	s, _ := newTestSession(0)
	dirty := s.OnKeyUp(keyA, 5)
	if dirty != LogChanged {
		t.Fatalf("expected only log dirty, got %s", dirty)
	}
	if s.LogLen() != 1 {
		t.Fatalf("expected release to be logged")
	}
}

func TestPausedSessionIsInert(t *testing.T) {
	s, _ := newTestSession(0)
	s.OnKeyDown(keyA, false, 10)
	s.OnKeyDown(keyA, true, 20)

	if d := s.TogglePause(); d != PauseChanged {
		t.Fatalf("expected only pause dirty, got %s", d)
	}
	held, repeats, pattern, log := s.HeldKeys(), s.RepeatCounts(), s.Pattern(), s.Log()
	last, _ := s.LastEventTime()

	for i := 0; i < 50; i++ {
		id := model.KeyIdentity{Key: "q", Code: "KeyQ"}
		if d := s.OnKeyDown(id, i > 0, float64(100+i)); !d.Empty() {
			t.Fatalf("paused keydown raised %s", d)
		}
		if d := s.OnKeyUp(keyA, float64(200+i)); !d.Empty() {
			t.Fatalf("paused keyup raised %s", d)
		}
	}
	if !reflect.DeepEqual(held, s.HeldKeys()) ||
		!reflect.DeepEqual(repeats, s.RepeatCounts()) ||
		!reflect.DeepEqual(pattern, s.Pattern()) ||
		!reflect.DeepEqual(log, s.Log()) {
		t.Fatalf("paused session state changed")
	}
	if got, _ := s.LastEventTime(); got != last {
		t.Fatalf("paused session moved last event time")
	}

	s.SetPaused(false)
	s.OnKeyUp(keyA, 300)
	if len(s.HeldKeys()) != 0 {
		t.Fatalf("expected release after resume to clear held key")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s, c := newTestSession(5)
	s.OnKeyDown(keyA, false, 10)
	s.OnKeyDown(keyA, true, 20)
	s.SetPaused(true)

	c.Set(1000)
	dirty := s.Reset(false)
	if !dirty.Has(AllViews) || dirty.Has(PauseChanged) {
		t.Fatalf("unexpected reset dirty: %s", dirty)
	}
	if !s.Paused() {
		t.Fatalf("programmatic reset must keep pause")
	}
	if len(s.HeldKeys()) != 0 || len(s.RepeatCounts()) != 0 || len(s.Pattern()) != 0 || s.LogLen() != 0 {
		t.Fatalf("reset left state behind")
	}
	if _, ok := s.LastEventTime(); ok {
		t.Fatalf("reset must clear last event time")
	}
	if s.Origin() != 1000 {
		t.Fatalf("expected new origin 1000, got %v", s.Origin())
	}

	dirty = s.Clear()
	if s.Paused() || !dirty.Has(PauseChanged) {
		t.Fatalf("clear must resume the session")
	}
	s.OnKeyDown(keyA, false, 1250)
	rec := s.Log()[0]
	if rec.DeltaMs != nil || rec.TSeconds != 0.25 {
		t.Fatalf("unexpected first record after clear: %+v", rec)
	}
}

func TestCustomBounds(t *testing.T) {
	s, _ := newTestSession(0, WithLogRows(3), WithPatternLength(2), WithLogRows(0))
	for i := 0; i < 5; i++ {
		s.OnKeyDown(keyA, true, float64(i))
	}
	if s.LogLen() != 3 || len(s.Pattern()) != 2 {
		t.Fatalf("bounds not applied: log=%d pattern=%d", s.LogLen(), len(s.Pattern()))
	}
	if s.LogRows() != 3 || s.PatternLength() != 2 {
		t.Fatalf("unexpected bounds: %d %d", s.LogRows(), s.PatternLength())
	}
}

func TestDirtyString(t *testing.T) {
	if got := (HeldKeysChanged | LogChanged).String(); got != "held|log" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := Dirty(0).String(); got != "none" {
		t.Fatalf("unexpected string: %q", got)
	}
}
