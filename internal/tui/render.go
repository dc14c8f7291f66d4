package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/view"
)

const (
	defaultLogHeight = 10
	minLogHeight     = 3
	// Rows used by the header, the three card panels and the help line.
	chromeHeight = 16
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	liveStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	patternStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pillKeyStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(lipgloss.Color("#C89A3A")).
			Padding(0, 1)
	pillMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B8B8B8")).
			Background(lipgloss.Color("#3A3A3A")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

var logColumns = []table.Column{
	{Title: "t (s)", Width: 9},
	{Title: "Δ", Width: 9},
	{Title: "Type", Width: 8},
	{Title: "Key", Width: 12},
	{Title: "Code", Width: 14},
	{Title: "Repeat", Width: 6},
}

// View implements tea.Model.
func (m *Model) View() string {
	status := liveStyle.Render("● live")
	if m.session.Paused() {
		status = pausedStyle.Render("⏸ PAUSED")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("keyviz")+"  "+status,
		m.card("Held keys", m.heldView),
		m.card("Repeat pattern", m.patternView),
		m.card("Repeat counts", m.repeatView),
		m.card("Event log", m.logTable.View()),
		m.help.View(m.keys),
	)
}

func (m *Model) card(title, body string) string {
	style := cardStyle
	if m.width > 0 {
		style = style.Width(m.width - 2)
	}
	return style.Render(cardTitleStyle.Render(title) + "\n" + body)
}

// panelWidth is the usable content width inside a card; zero disables wrapping.
func (m *Model) panelWidth() int {
	if m.width == 0 {
		return 0
	}
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) logTableHeight() int {
	if m.height == 0 {
		return defaultLogHeight
	}
	h := m.height - chromeHeight
	if h < minLogHeight {
		h = minLogHeight
	}
	return h
}

func renderHeldKeys(held []model.HeldKey, width int) string {
	if len(held) == 0 {
		return mutedStyle.Render(view.NoHeldKeys)
	}
	chunks := make([]styledChunk, 0, len(held))
	for _, k := range held {
		chunks = append(chunks, pill(k.Key, k.Code))
	}
	return wrapChunks(chunks, styledChunk{s: " ", width: 1}, width)
}

func renderPattern(labels []string, width int) string {
	if len(labels) == 0 {
		return mutedStyle.Render(view.EmptyPattern)
	}
	chunks := make([]styledChunk, 0, len(labels))
	for _, label := range labels {
		chunks = append(chunks, newChunk(patternStyle, label))
	}
	return wrapChunks(chunks, newChunk(separatorStyle, view.PatternSeparator), width)
}

func renderRepeatCounts(repeats []model.RepeatRecord, width int) string {
	if len(repeats) == 0 {
		return mutedStyle.Render("No repeats yet")
	}
	chunks := make([]styledChunk, 0, len(repeats))
	for _, r := range repeats {
		chunks = append(chunks, pill(r.Key, view.RepeatMeta(r)))
	}
	return wrapChunks(chunks, styledChunk{s: " ", width: 1}, width)
}

func newLogTable() table.Model {
	t := table.New(
		table.WithColumns(logColumns),
		table.WithHeight(defaultLogHeight),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)
	return t
}

func logTableRows(recs []model.LogRecord) []table.Row {
	formatted := view.LogRows(recs)
	rows := make([]table.Row, 0, len(formatted))
	for _, r := range formatted {
		rows = append(rows, table.Row{r.Time, r.Delta, r.Type, r.Key, r.Code, r.Repeat})
	}
	return rows
}
