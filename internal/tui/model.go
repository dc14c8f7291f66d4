// Package tui provides the Bubble Tea keyboard visualizer.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
)

// Recorder receives every action delivered to the session.
type Recorder interface {
	Record(a model.Action) error
}

// Options configure the terminal visualizer.
type Options struct {
	ReleaseAfter time.Duration
	Recorder     Recorder
	Logger       *slog.Logger
}

// Model implements the Bubble Tea keyboard visualizer.
type Model struct {
	session  *session.Session
	clock    clock.Clock
	tracker  *pressTracker
	recorder Recorder
	logger   *slog.Logger

	keys     keyMap
	help     help.Model
	logTable table.Model

	width  int
	height int

	heldView    string
	patternView string
	repeatView  string
}

// NewModel constructs a visualizer over s. c must be the clock s was created with.
func NewModel(s *session.Session, c clock.Clock, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		session:  s,
		clock:    c,
		tracker:  newPressTracker(opts.ReleaseAfter),
		recorder: opts.Recorder,
		logger:   logger,
		keys:     defaultKeys(),
		help:     help.New(),
		logTable: newLogTable(),
	}
	m.sync(session.AllViews)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case releaseMsg:
		if id, ok := m.tracker.release(msg); ok {
			m.apply(model.Action{Kind: model.ActionKeyUp, Key: id.Key, Code: id.Code, TS: m.clock.Now()})
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		kind := model.ActionPause
		if m.session.Paused() {
			kind = model.ActionResume
		}
		m.apply(model.Action{Kind: kind, TS: m.clock.Now()})
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.tracker.reset()
		m.apply(model.Action{Kind: model.ActionClear, TS: m.clock.Now()})
		return m, nil
	}

	ids := identities(msg)
	cmds := make([]tea.Cmd, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		// A rune repeated within one message was typed twice, not held.
		if seen[id.Code] {
			if prev, ok := m.tracker.drop(id.Code); ok {
				m.apply(model.Action{Kind: model.ActionKeyUp, Key: prev.Key, Code: prev.Code, TS: m.clock.Now()})
			}
		}
		seen[id.Code] = true
		repeat, release := m.tracker.press(id)
		m.apply(model.Action{Kind: model.ActionKeyDown, Key: id.Key, Code: id.Code, Repeat: repeat, TS: m.clock.Now()})
		cmds = append(cmds, m.tracker.scheduleRelease(release))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) apply(a model.Action) {
	if m.recorder != nil {
		if err := m.recorder.Record(a); err != nil {
			m.logger.Warn("failed to record action", "kind", a.Kind, "err", err)
		}
	}
	dirty := m.session.Apply(a)
	m.logger.Debug("folded action", "kind", a.Kind, "code", a.Code, "repeat", a.Repeat, "dirty", dirty.String())
	m.sync(dirty)
}

// sync re-renders the panels marked dirty.
func (m *Model) sync(dirty session.Dirty) {
	width := m.panelWidth()
	if dirty.Has(session.HeldKeysChanged) {
		m.heldView = renderHeldKeys(m.session.HeldKeys(), width)
	}
	if dirty.Has(session.PatternChanged) {
		m.patternView = renderPattern(m.session.Pattern(), width)
	}
	if dirty.Has(session.RepeatCountsChanged) {
		m.repeatView = renderRepeatCounts(m.session.RepeatCounts(), width)
	}
	if dirty.Has(session.LogChanged) {
		m.logTable.SetRows(logTableRows(m.session.Log()))
	}
}

func (m *Model) updateLayout() {
	m.logTable.SetWidth(m.panelWidth())
	m.logTable.SetHeight(m.logTableHeight())
	m.sync(session.AllViews)
}
