package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/view"
)

const terminalWidthBackup = 80

// Options control report rendering.
type Options struct {
	// Width truncates the pattern line; zero means unlimited.
	Width int
	// MaxLogRows limits printed log rows; zero prints all retained rows.
	MaxLogRows int
}

// Render writes every session view to w.
func Render(w io.Writer, src view.Source, opts Options) error {
	if err := RenderHeldKeys(w, src); err != nil {
		return err
	}
	if err := RenderPattern(w, src, opts.Width); err != nil {
		return err
	}
	if err := RenderRepeatCounts(w, src); err != nil {
		return err
	}
	return RenderLog(w, src, opts.MaxLogRows)
}

// RenderHeldKeys prints held keys in press order.
func RenderHeldKeys(w io.Writer, src view.Source) error {
	if _, err := fmt.Fprintln(w, "Held Keys"); err != nil {
		return err
	}
	held := src.HeldKeys()
	if len(held) == 0 {
		_, err := fmt.Fprintf(w, "%s\n\n", view.NoHeldKeys)
		return err
	}
	rows := make([][]string, 0, len(held))
	for _, k := range held {
		rows = append(rows, []string{k.Key, k.Code})
	}
	return writeTable(w, []string{"Key", "Code"}, rows, nil)
}

// RenderPattern prints the repeat pattern, truncated to width when positive.
func RenderPattern(w io.Writer, src view.Source, width int) error {
	line := view.PatternSequence(src.Pattern())
	if width > 0 {
		line = runewidth.Truncate(line, width, "…")
	}
	_, err := fmt.Fprintf(w, "Pattern\n%s\n\n", line)
	return err
}

// RenderRepeatCounts prints repeat counts, most repeated first.
func RenderRepeatCounts(w io.Writer, src view.Source) error {
	if _, err := fmt.Fprintln(w, "Repeat Counts"); err != nil {
		return err
	}
	repeats := src.RepeatCounts()
	if len(repeats) == 0 {
		_, err := fmt.Fprint(w, "No repeats.\n\n")
		return err
	}
	rows := make([][]string, 0, len(repeats))
	for _, r := range repeats {
		rows = append(rows, []string{r.Key, r.Code, strconv.Itoa(r.Count)})
	}
	return writeTable(w, []string{"Key", "Code", "Count"}, rows, map[int]bool{2: true})
}

// RenderLog prints log rows newest first.
func RenderLog(w io.Writer, src view.Source, maxRows int) error {
	if _, err := fmt.Fprintln(w, "Event Log"); err != nil {
		return err
	}
	recs := src.Log()
	if len(recs) == 0 {
		_, err := fmt.Fprint(w, "No events.\n\n")
		return err
	}
	if maxRows > 0 && len(recs) > maxRows {
		recs = recs[:maxRows]
	}
	formatted := view.LogRows(recs)
	rows := make([][]string, 0, len(formatted))
	for _, r := range formatted {
		rows = append(rows, []string{r.Time, r.Delta, r.Type, r.Key, r.Code, r.Repeat})
	}
	headers := []string{"t (s)", "Δ", "Type", "Key", "Code", "Repeat"}
	return writeTable(w, headers, rows, map[int]bool{0: true, 1: true})
}

// RenderTraces lists recorded traces in the order given.
func RenderTraces(w io.Writer, traces []model.TraceInfo) error {
	if len(traces) == 0 {
		_, err := fmt.Fprintln(w, "No traces recorded.")
		return err
	}
	rows := make([][]string, 0, len(traces))
	for _, t := range traces {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.UID,
			t.Name,
			t.Source,
			t.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(t.Actions),
		})
	}
	return writeTable(w, []string{"ID", "UID", "Name", "Source", "Started", "Actions"}, rows, map[int]bool{0: true, 5: true})
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
