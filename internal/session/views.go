package session

import (
	"sort"

	"github.com/verte-zerg/keyviz/internal/model"
)

// HeldKeys returns the held keys in press order.
func (s *Session) HeldKeys() []model.HeldKey {
	out := make([]model.HeldKey, 0, len(s.activeKeys))
	for _, k := range s.activeKeys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PressedAt == out[j].PressedAt {
			return out[i].Code < out[j].Code
		}
		return out[i].PressedAt < out[j].PressedAt
	})
	return out
}

// IsHeld reports whether code is currently held.
func (s *Session) IsHeld(code string) bool {
	_, ok := s.activeKeys[code]
	return ok
}

// RepeatCounts returns repeat records ordered by count descending, then code.
func (s *Session) RepeatCounts() []model.RepeatRecord {
	out := make([]model.RepeatRecord, 0, len(s.repeatCounts))
	for _, r := range s.repeatCounts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Code < out[j].Code
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Pattern returns the buffered repeat labels, oldest first.
func (s *Session) Pattern() []string {
	out := make([]string, len(s.pattern))
	copy(out, s.pattern)
	return out
}

// Log returns the retained log records, newest first.
func (s *Session) Log() []model.LogRecord {
	out := make([]model.LogRecord, len(s.log))
	for i, rec := range s.log {
		out[len(s.log)-1-i] = rec
	}
	return out
}

// LogLen returns the number of retained log records.
func (s *Session) LogLen() int {
	return len(s.log)
}
