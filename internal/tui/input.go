package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyviz/internal/model"
)

// DefaultReleaseAfter is how long a key stays held after its last press.
// It must exceed the terminal's auto-repeat delay, or held keys flicker.
const DefaultReleaseAfter = 600 * time.Millisecond

// Terminals deliver presses only. A press for a code that is still held is
// auto-repeat; a code with no press for releaseAfter counts as released.
type pressTracker struct {
	releaseAfter time.Duration
	held         map[string]pressState
	seq          uint64
}

type pressState struct {
	id  model.KeyIdentity
	seq uint64
}

type releaseMsg struct {
	code string
	seq  uint64
}

func newPressTracker(releaseAfter time.Duration) *pressTracker {
	if releaseAfter <= 0 {
		releaseAfter = DefaultReleaseAfter
	}
	return &pressTracker{
		releaseAfter: releaseAfter,
		held:         map[string]pressState{},
	}
}

// press records a press and reports whether it is an auto-repeat.
func (p *pressTracker) press(id model.KeyIdentity) (bool, releaseMsg) {
	_, repeat := p.held[id.Code]
	p.seq++
	p.held[id.Code] = pressState{id: id, seq: p.seq}
	return repeat, releaseMsg{code: id.Code, seq: p.seq}
}

// release returns the identity to release when msg belongs to the latest
// press of its code.
func (p *pressTracker) release(msg releaseMsg) (model.KeyIdentity, bool) {
	st, ok := p.held[msg.code]
	if !ok || st.seq != msg.seq {
		return model.KeyIdentity{}, false
	}
	delete(p.held, msg.code)
	return st.id, true
}

// drop forgets a held code without waiting for its timer. The pending tick
// no longer matches and is ignored.
func (p *pressTracker) drop(code string) (model.KeyIdentity, bool) {
	st, ok := p.held[code]
	if !ok {
		return model.KeyIdentity{}, false
	}
	delete(p.held, code)
	return st.id, true
}

func (p *pressTracker) reset() {
	p.held = map[string]pressState{}
}

func (p *pressTracker) scheduleRelease(msg releaseMsg) tea.Cmd {
	return tea.Tick(p.releaseAfter, func(time.Time) tea.Msg {
		return msg
	})
}

var namedKeys = map[tea.KeyType]model.KeyIdentity{
	tea.KeySpace:     {Key: " ", Code: "Space"},
	tea.KeyEnter:     {Key: "Enter", Code: "Enter"},
	tea.KeyTab:       {Key: "Tab", Code: "Tab"},
	tea.KeyShiftTab:  {Key: "Tab", Code: "Tab"},
	tea.KeyBackspace: {Key: "Backspace", Code: "Backspace"},
	tea.KeyDelete:    {Key: "Delete", Code: "Delete"},
	tea.KeyInsert:    {Key: "Insert", Code: "Insert"},
	tea.KeyEsc:       {Key: "Escape", Code: "Escape"},
	tea.KeyUp:        {Key: "ArrowUp", Code: "ArrowUp"},
	tea.KeyDown:      {Key: "ArrowDown", Code: "ArrowDown"},
	tea.KeyLeft:      {Key: "ArrowLeft", Code: "ArrowLeft"},
	tea.KeyRight:     {Key: "ArrowRight", Code: "ArrowRight"},
	tea.KeyHome:      {Key: "Home", Code: "Home"},
	tea.KeyEnd:       {Key: "End", Code: "End"},
	tea.KeyPgUp:      {Key: "PageUp", Code: "PageUp"},
	tea.KeyPgDown:    {Key: "PageDown", Code: "PageDown"},
	tea.KeyF1:        {Key: "F1", Code: "F1"},
	tea.KeyF2:        {Key: "F2", Code: "F2"},
	tea.KeyF3:        {Key: "F3", Code: "F3"},
	tea.KeyF4:        {Key: "F4", Code: "F4"},
	tea.KeyF5:        {Key: "F5", Code: "F5"},
	tea.KeyF6:        {Key: "F6", Code: "F6"},
	tea.KeyF7:        {Key: "F7", Code: "F7"},
	tea.KeyF8:        {Key: "F8", Code: "F8"},
	tea.KeyF9:        {Key: "F9", Code: "F9"},
	tea.KeyF10:       {Key: "F10", Code: "F10"},
	tea.KeyF11:       {Key: "F11", Code: "F11"},
	tea.KeyF12:       {Key: "F12", Code: "F12"},
}

// US layout: shifted symbols share the code of their unshifted key.
var punctCodes = map[rune]string{
	'-': "Minus", '_': "Minus",
	'=': "Equal", '+': "Equal",
	'[': "BracketLeft", '{': "BracketLeft",
	']': "BracketRight", '}': "BracketRight",
	'\\': "Backslash", '|': "Backslash",
	';': "Semicolon", ':': "Semicolon",
	'\'': "Quote", '"': "Quote",
	',': "Comma", '<': "Comma",
	'.': "Period", '>': "Period",
	'/': "Slash", '?': "Slash",
	'`': "Backquote", '~': "Backquote",
	'!': "Digit1", '@': "Digit2", '#': "Digit3", '$': "Digit4", '%': "Digit5",
	'^': "Digit6", '&': "Digit7", '*': "Digit8", '(': "Digit9", ')': "Digit0",
}

// identities maps a terminal key message to the keys it represents.
// Pasted text yields nothing.
func identities(msg tea.KeyMsg) []model.KeyIdentity {
	if msg.Paste {
		return nil
	}
	if id, ok := namedKeys[msg.Type]; ok {
		return []model.KeyIdentity{id}
	}
	if msg.Type != tea.KeyRunes {
		name := msg.String()
		return []model.KeyIdentity{{Key: name, Code: name}}
	}
	out := make([]model.KeyIdentity, 0, len(msg.Runes))
	for _, r := range msg.Runes {
		out = append(out, model.KeyIdentity{Key: string(r), Code: codeForRune(r)})
	}
	return out
}

func codeForRune(r rune) string {
	switch {
	case r >= 'a' && r <= 'z':
		return "Key" + string(r-'a'+'A')
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r)
	case r >= '0' && r <= '9':
		return "Digit" + string(r)
	case r == ' ':
		return "Space"
	}
	if code, ok := punctCodes[r]; ok {
		return code
	}
	return fmt.Sprintf("U+%04X", r)
}
