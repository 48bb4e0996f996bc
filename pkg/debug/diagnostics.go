package debug

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Diagnostic is a log message emitted while folding, with how often it was
// seen and the first line it was reported for.
type Diagnostic struct {
	Level   logrus.Level
	Message string
	Count   int
	Example string
}

// DiagnosticsHook is a logrus hook counting warnings and errors by message,
// so that a run over millions of lines can be summarised.
type DiagnosticsHook struct {
	mu    sync.Mutex
	byMsg map[string]*Diagnostic
}

// NewDiagnosticsHook creates an empty hook. Add it with logger.AddHook.
func NewDiagnosticsHook() *DiagnosticsHook {
	return &DiagnosticsHook{byMsg: make(map[string]*Diagnostic)}
}

func (h *DiagnosticsHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *DiagnosticsHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.byMsg[entry.Message]
	if !ok {
		d = &Diagnostic{Level: entry.Level, Message: entry.Message}
		if line, ok := entry.Data["line"]; ok {
			d.Example = fmt.Sprint(line)
		}
		h.byMsg[entry.Message] = d
	}
	d.Count++
	return nil
}

// Diagnostics returns what was seen, most frequent first.
func (h *DiagnosticsHook) Diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Diagnostic, 0, len(h.byMsg))
	for _, d := range h.byMsg {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b Diagnostic) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return out
}

// DiagnosticsReport prints the diagnostics table. Nothing is printed when
// there are none.
func DiagnosticsReport(w io.Writer, diags []Diagnostic) {
	if len(diags) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Parser Diagnostics"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 85)))
	fmt.Fprintf(w, "  %s %s %s %s\n",
		debugHeader.Render("LEVEL  "),
		debugHeader.Render("COUNT   "),
		debugHeader.Render("MESSAGE                  "),
		debugHeader.Render("FIRST LINE          "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 85)))

	for _, d := range diags {
		fmt.Fprintf(w, "  %-9s %-10d %-27s %s\n",
			d.Level, d.Count, d.Message, debugDim.Render(fmt.Sprintf("%q", d.Example)))
	}
}
