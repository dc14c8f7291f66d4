// Package view turns session state into display-ready values for the
// terminal and browser front ends. It holds no state of its own.
package view

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
)

// Placeholder and separator text shared by the front ends.
const (
	EmptyPattern     = "Waiting for repeated events..."
	NoHeldKeys       = "No keys held"
	PatternSeparator = " → "
	NoDelta          = "—"
)

// Source is the read side of a session.
type Source interface {
	HeldKeys() []model.HeldKey
	RepeatCounts() []model.RepeatRecord
	Pattern() []string
	Log() []model.LogRecord
	Paused() bool
}

var _ Source = (*session.Session)(nil)

// Row is a formatted event log row.
type Row struct {
	Time   string
	Delta  string
	Type   string
	Key    string
	Code   string
	Repeat string
}

// FormatSeconds renders an origin-relative time with millisecond precision.
func FormatSeconds(t float64) string {
	return fmt.Sprintf("%.3f", t)
}

// FormatDelta renders the gap to the previous event.
func FormatDelta(delta *int64) string {
	if delta == nil {
		return NoDelta
	}
	return fmt.Sprintf("%d ms", *delta)
}

// FormatRepeat renders the repeat flag.
func FormatRepeat(repeat bool) string {
	if repeat {
		return "yes"
	}
	return "no"
}

// PatternSequence joins repeat labels for display.
func PatternSequence(labels []string) string {
	if len(labels) == 0 {
		return EmptyPattern
	}
	return strings.Join(labels, PatternSeparator)
}

// RepeatMeta renders the code and count of a repeat record.
func RepeatMeta(r model.RepeatRecord) string {
	return fmt.Sprintf("%s ×%d", r.Code, r.Count)
}

// LogRows formats log records in the order given.
func LogRows(recs []model.LogRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row{
			Time:   FormatSeconds(rec.TSeconds),
			Delta:  FormatDelta(rec.DeltaMs),
			Type:   string(rec.EventType),
			Key:    rec.Key,
			Code:   rec.Code,
			Repeat: FormatRepeat(rec.Repeat),
		})
	}
	return rows
}
