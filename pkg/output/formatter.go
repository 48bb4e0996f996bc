// Package output provides formatters for folded stacks.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// Format represents the output format type.
type Format string

const (
	FormatFolded Format = "folded"
	FormatTable  Format = "table"
	FormatJSON   Format = "json"
	FormatTSV    Format = "tsv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatFolded, FormatTable, FormatJSON, FormatTSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want folded, table, json or tsv)", s)
}

// DefaultTop is the number of stacks shown by the table format.
const DefaultTop = 20

// tableStackFrames is how many frames of a stack, counted from the leaf,
// the table shows.
const tableStackFrames = 4

// Formatter handles output formatting.
type Formatter struct {
	format Format
	writer io.Writer
	top    int
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// SetTop limits the table, TSV and JSON formats to the n hottest stacks.
// n <= 0 shows everything, except for the table which then uses DefaultTop.
func (f *Formatter) SetTop(n int) {
	f.top = n
}

// Render outputs the stacks in the configured format.
func (f *Formatter) Render(occ *collapse.Occurrences) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(occ)
	case FormatTSV:
		return f.renderTSV(occ)
	case FormatTable:
		return f.renderTable(occ)
	default:
		_, err := occ.WriteTo(f.writer)
		return err
	}
}

// stacks returns the entries to show: the hottest f.top, or all of them in
// stack order.
func (f *Formatter) stacks(occ *collapse.Occurrences) []collapse.Entry {
	if f.top > 0 {
		return occ.Top(f.top)
	}
	return occ.Entries()
}

// renderJSON outputs the stacks as JSON.
func (f *Formatter) renderJSON(occ *collapse.Occurrences) error {
	output := struct {
		Total  uint64           `json:"total"`
		Unique int              `json:"unique"`
		Stacks []collapse.Entry `json:"stacks"`
		Self   []FunctionShare  `json:"self"`
	}{
		Total:  occ.Total(),
		Unique: occ.Len(),
		Stacks: f.stacks(occ),
		Self:   SelfTime(occ, f.top),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// renderTSV outputs the stacks as tab-separated values.
func (f *Formatter) renderTSV(occ *collapse.Occurrences) error {
	total := occ.Total()
	if _, err := fmt.Fprintln(f.writer, "COUNT\tSHARE\tSTACK"); err != nil {
		return err
	}
	for _, e := range f.stacks(occ) {
		if _, err := fmt.Fprintf(f.writer, "%d\t%.4f\t%s\n", e.Count, Share(e.Count, total), e.Stack); err != nil {
			return err
		}
	}
	return nil
}

// renderTable outputs the hottest stacks and functions as styled tables.
func (f *Formatter) renderTable(occ *collapse.Occurrences) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	heatStyles := map[Heat]lipgloss.Style{
		HeatHot:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
		HeatWarm: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
		HeatCold: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),             // Gray
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	top := f.top
	if top <= 0 {
		top = DefaultTop
	}
	total := occ.Total()

	newTable := func(headers ...string) *table.Table {
		return table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers(headers...)
	}

	fmt.Fprintln(f.writer, titleStyle.Render("Hottest Stacks"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	stacks := occ.Top(top)
	rows := make([][]string, len(stacks))
	for i, e := range stacks {
		share := Share(e.Count, total)
		rows[i] = []string{
			strconv.Itoa(i + 1),
			humanize.Comma(int64(e.Count)),
			heatStyles[HeatOf(share)].Render(fmt.Sprintf("%.1f%%", share*100)),
			shortStack(e.Stack, tableStackFrames),
		}
	}
	fmt.Fprintln(f.writer, newTable("#", "SAMPLES", "SHARE", "STACK").Rows(rows...))
	fmt.Fprintln(f.writer)

	self := SelfTime(occ, top)
	rows = make([][]string, len(self))
	for i, s := range self {
		share := Share(s.Self, total)
		rows[i] = []string{
			strconv.Itoa(i + 1),
			humanize.Comma(int64(s.Self)),
			heatStyles[HeatOf(share)].Render(fmt.Sprintf("%.1f%%", share*100)),
			s.Function,
		}
	}
	fmt.Fprintln(f.writer, titleStyle.Render("Self Time"))
	fmt.Fprintln(f.writer, newTable("#", "SAMPLES", "SHARE", "FUNCTION").Rows(rows...))
	fmt.Fprintln(f.writer)

	_, err := fmt.Fprintf(f.writer, "Summary: %s samples in %s unique stacks, depth %s\n",
		humanize.Comma(int64(total)), humanize.Comma(int64(occ.Len())), Sparkline(DepthHistogram(occ)))
	return err
}

// shortStack keeps the last n frames of stack, marking the cut with "…".
func shortStack(stack string, n int) string {
	frames := strings.Split(stack, ";")
	if len(frames) <= n {
		return stack
	}
	return "…;" + strings.Join(frames[len(frames)-n:], ";")
}
