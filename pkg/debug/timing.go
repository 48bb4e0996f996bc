package debug

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/stackfold/pkg/collapse"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Phase names recorded by TimedFolder.
const (
	PhasePreProcess = "preprocess"
	PhaseCollapse   = "collapse"
)

// PhaseTiming is the accumulated duration of every call of one phase.
// Collapse calls run concurrently, so their sum can exceed wall time.
type PhaseTiming struct {
	Name     string
	Calls    int
	Duration time.Duration
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []PhaseTiming
}

func (r *phaseRecorder) record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.phases {
		if r.phases[i].Name == name {
			r.phases[i].Calls++
			r.phases[i].Duration += d
			return
		}
	}
	r.phases = append(r.phases, PhaseTiming{Name: name, Calls: 1, Duration: d})
}

// TimedFolder wraps a collapse.Folder to record how long each phase takes.
// Clones share the recorder of the folder they were made from.
type TimedFolder struct {
	collapse.Folder
	rec *phaseRecorder
}

// NewTimedFolder wraps f with timing instrumentation.
func NewTimedFolder(f collapse.Folder) *TimedFolder {
	return &TimedFolder{Folder: f, rec: &phaseRecorder{}}
}

func (t *TimedFolder) PreProcess(r *bufio.Reader, occ *collapse.Occurrences) error {
	start := time.Now()
	err := t.Folder.PreProcess(r, occ)
	t.rec.record(PhasePreProcess, time.Since(start))
	return err
}

func (t *TimedFolder) CollapseSingleThreaded(r *bufio.Reader, occ *collapse.Occurrences) error {
	start := time.Now()
	err := t.Folder.CollapseSingleThreaded(r, occ)
	t.rec.record(PhaseCollapse, time.Since(start))
	return err
}

func (t *TimedFolder) CloneAndResetStackContext() collapse.Folder {
	return &TimedFolder{Folder: t.Folder.CloneAndResetStackContext(), rec: t.rec}
}

// Timings returns the phases recorded so far, in first-seen order.
func (t *TimedFolder) Timings() []PhaseTiming {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return append([]PhaseTiming(nil), t.rec.phases...)
}

// TimingReport prints a styled timing summary. wall is the elapsed time of
// the whole run.
func TimingReport(w io.Writer, timings []PhaseTiming, wall time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Collapse Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 48)))
	fmt.Fprintf(w, "  %s  %s  %s\n",
		debugHeader.Render("PHASE       "),
		debugHeader.Render("CALLS "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 48)))

	for _, t := range timings {
		fmt.Fprintf(w, "  %-14s %7d  %v\n", t.Name, t.Calls, t.Duration)
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 48)))
	fmt.Fprintf(w, "  %-14s %7s  %v\n",
		lipgloss.NewStyle().Bold(true).Render("WALL"), "", wall)
}
