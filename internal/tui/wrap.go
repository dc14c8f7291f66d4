package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const maxPillLabel = 14

type styledChunk struct {
	s     string
	width int
}

func newChunk(style lipgloss.Style, text string) styledChunk {
	s := style.Render(text)
	return styledChunk{s: s, width: lipgloss.Width(s)}
}

func pill(label, meta string) styledChunk {
	label = runewidth.Truncate(label, maxPillLabel, "…")
	if label == " " {
		label = "␣"
	}
	s := pillKeyStyle.Render(label) + pillMetaStyle.Render(meta)
	return styledChunk{s: s, width: lipgloss.Width(s)}
}

func renderChunks(chunks []styledChunk, sep string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.s
	}
	return strings.Join(parts, sep)
}

// wrapChunks lays chunks out left to right and breaks lines only between
// chunks. A chunk wider than width gets a line of its own.
func wrapChunks(chunks []styledChunk, sep styledChunk, width int) string {
	if width <= 0 {
		return renderChunks(chunks, sep.s)
	}
	var out strings.Builder
	lineWidth := 0
	for _, c := range chunks {
		switch {
		case lineWidth == 0:
		case lineWidth+sep.width+c.width > width:
			out.WriteRune('\n')
			lineWidth = 0
		default:
			out.WriteString(sep.s)
			lineWidth += sep.width
		}
		out.WriteString(c.s)
		lineWidth += c.width
	}
	return out.String()
}
