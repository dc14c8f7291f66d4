// Package session folds raw key events into derived keyboard state: the
// set of held keys, per-code auto-repeat counts, a bounded buffer of
// repeated labels and a bounded event log.
//
// A Session is owned by exactly one caller at a time. Front ends must never
// interleave calls on the same Session; it carries no locking of its own.
package session

import (
	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/model"
)

// Default bounds for the event log and pattern buffer.
const (
	DefaultLogRows       = 300
	DefaultPatternLength = 80
)

// Session is the mutable keyboard activity model.
type Session struct {
	clock clock.Clock

	activeKeys   map[string]model.HeldKey
	repeatCounts map[string]model.RepeatRecord
	pattern      []string
	log          []model.LogRecord // oldest first

	lastEventTime float64
	hasLastEvent  bool
	origin        float64
	paused        bool

	maxLogRows    int
	maxPatternLen int
}

// Option configures a Session.
type Option func(*Session)

// WithLogRows bounds the event log. Non-positive values keep the default.
func WithLogRows(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxLogRows = n
		}
	}
}

// WithPatternLength bounds the pattern buffer. Non-positive values keep the default.
func WithPatternLength(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxPatternLen = n
		}
	}
}

// New creates an empty session whose origin is the clock's current reading.
func New(c clock.Clock, opts ...Option) *Session {
	s := &Session{
		clock:         c,
		activeKeys:    map[string]model.HeldKey{},
		repeatCounts:  map[string]model.RepeatRecord{},
		origin:        c.Now(),
		maxLogRows:    DefaultLogRows,
		maxPatternLen: DefaultPatternLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paused reports whether folding is currently gated off.
func (s *Session) Paused() bool {
	return s.paused
}

// Origin returns the timestamp all elapsed times are measured from.
func (s *Session) Origin() float64 {
	return s.origin
}

// LastEventTime returns the timestamp of the most recent logged event.
func (s *Session) LastEventTime() (float64, bool) {
	return s.lastEventTime, s.hasLastEvent
}

// LogRows returns the event log bound.
func (s *Session) LogRows() int {
	return s.maxLogRows
}

// PatternLength returns the pattern buffer bound.
func (s *Session) PatternLength() int {
	return s.maxPatternLen
}
