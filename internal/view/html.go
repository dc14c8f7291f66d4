package view

import (
	"html"
	"strings"

	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
)

// Fragments carries re-rendered HTML for the panels marked dirty. Panels
// that did not change are nil and omitted from JSON.
type Fragments struct {
	HeldKeys     *string `json:"heldKeys,omitempty"`
	NoHeldKeys   *bool   `json:"noHeldKeys,omitempty"`
	Pattern      *string `json:"pattern,omitempty"`
	RepeatCounts *string `json:"repeatCounts,omitempty"`
	Log          *string `json:"log,omitempty"`
	Paused       bool    `json:"paused"`
}

// BuildFragments renders the panels selected by dirty.
func BuildFragments(src Source, dirty session.Dirty) Fragments {
	f := Fragments{Paused: src.Paused()}
	if dirty.Has(session.HeldKeysChanged) {
		held := src.HeldKeys()
		out := HeldKeysHTML(held)
		empty := len(held) == 0
		f.HeldKeys = &out
		f.NoHeldKeys = &empty
	}
	if dirty.Has(session.PatternChanged) {
		out := html.EscapeString(PatternSequence(src.Pattern()))
		f.Pattern = &out
	}
	if dirty.Has(session.RepeatCountsChanged) {
		out := RepeatCountsHTML(src.RepeatCounts())
		f.RepeatCounts = &out
	}
	if dirty.Has(session.LogChanged) {
		out := LogHTML(src.Log())
		f.Log = &out
	}
	return f
}

// HeldKeysHTML renders held keys as list items.
func HeldKeysHTML(held []model.HeldKey) string {
	var b strings.Builder
	for _, k := range held {
		writePill(&b, k.Key, k.Code)
	}
	return b.String()
}

// RepeatCountsHTML renders repeat records as list items.
func RepeatCountsHTML(repeats []model.RepeatRecord) string {
	var b strings.Builder
	for _, r := range repeats {
		writePill(&b, r.Key, RepeatMeta(r))
	}
	return b.String()
}

// LogHTML renders log records as table rows, in the order given.
func LogHTML(recs []model.LogRecord) string {
	var b strings.Builder
	for _, row := range LogRows(recs) {
		b.WriteString("<tr>")
		for _, cell := range []string{row.Time, row.Delta, row.Type, row.Key, row.Code, row.Repeat} {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	return b.String()
}

func writePill(b *strings.Builder, key, meta string) {
	b.WriteString(`<li><span class="pill-key">`)
	b.WriteString(html.EscapeString(key))
	b.WriteString(`</span><span class="pill-meta">`)
	b.WriteString(html.EscapeString(meta))
	b.WriteString(`</span></li>`)
}
