// Package model defines shared data structures.
package model

import "time"

// EventType names the kind of a logged key event.
type EventType string

// Logged key event kinds.
const (
	KeyDown EventType = "keydown"
	KeyUp   EventType = "keyup"
)

// KeyIdentity pairs the logical key label with the physical key code.
// Code is the primary key for held and repeat tracking.
type KeyIdentity struct {
	Key  string
	Code string
}

// HeldKey is a physical key currently held down.
type HeldKey struct {
	Code      string
	Key       string
	PressedAt float64
}

// RepeatRecord counts auto-repeat events for one code.
type RepeatRecord struct {
	Code  string
	Key   string
	Count int
}

// LogRecord is one entry of the event log.
type LogRecord struct {
	TSeconds  float64
	DeltaMs   *int64
	EventType EventType
	Key       string
	Code      string
	Repeat    bool
}

// Config defines session and front-end settings.
type Config struct {
	LogRows       int
	PatternLength int
	ReleaseAfter  time.Duration
	AltScreen     bool
	Addr          string
	Record        string
}

// ActionKind names a recorded input or control action.
type ActionKind string

// Recorded action kinds.
const (
	ActionKeyDown ActionKind = "keydown"
	ActionKeyUp   ActionKind = "keyup"
	ActionPause   ActionKind = "pause"
	ActionResume  ActionKind = "resume"
	ActionClear   ActionKind = "clear"
)

// Action is one raw input or control action as delivered to the session.
type Action struct {
	Seq    int64
	Kind   ActionKind
	Key    string
	Code   string
	Repeat bool
	TS     float64
}

// TraceInfo summarizes a recorded trace.
type TraceInfo struct {
	ID        int64
	UID       string
	Name      string
	Source    string
	StartedAt time.Time
	OriginMs  float64
	Actions   int
}
