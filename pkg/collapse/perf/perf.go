// Package perf folds the output of `perf script`.
package perf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/symbol"
)

// Options configures a perf Folder.
type Options struct {
	// AnnotateJIT appends "_[j]" to frames from /tmp/perf-<pid>.map JIT maps.
	AnnotateJIT bool
	// AnnotateKernel appends "_[k]" to kernel frames.
	AnnotateKernel bool
	// Demangle runs every function name through Demangler.
	Demangle bool
	// EventFilter keeps only samples of this event type (see `perf list`).
	// When empty, the first event type found in the input is used.
	EventFilter string
	// IncludeAddrs shows raw addresses where symbols can't be found.
	IncludeAddrs bool
	// IncludePID appends the PID to the process name in the root frame.
	IncludePID bool
	// IncludeTID appends PID and TID to the process name. Implies IncludePID.
	IncludeTID bool
	// NThreads is the number of parser goroutines.
	NThreads int

	Demangler symbol.Demangler
	Logger    logrus.FieldLogger
}

// DefaultOptions returns options using every CPU the process may run on.
func DefaultOptions() Options {
	return DefaultOptionsFor(collapse.AvailableParallelism)
}

// DefaultOptionsFor returns the default options with the thread count
// resolved from p.
func DefaultOptionsFor(p collapse.Parallelism) Options {
	return Options{
		NThreads: p.Threads(),
	}
}

// Folder is a stack collapser for the output of `perf script`.
type Folder struct {
	opt      Options
	log      logrus.FieldLogger
	demangle symbol.Demangler

	// eventFilter starts as the configured filter and is set to the first
	// event type seen when none was configured. It never changes after that.
	eventFilter    string
	hasEventFilter bool

	nstacksPerJob int

	// Stack state, reset after every event.
	inEvent   bool
	skipStack bool
	pname     string
	stack     []string // leaf first

	// Reused across lines.
	scratch []string
	line    []byte
}

// NewFolder creates a Folder from opt.
func NewFolder(opt Options) *Folder {
	if opt.NThreads < 1 {
		opt.NThreads = 1
	}
	opt.IncludePID = opt.IncludePID || opt.IncludeTID
	if opt.Demangler == nil {
		opt.Demangler = symbol.Demangle
	}
	if opt.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opt.Logger = logger
	}

	return &Folder{
		opt:            opt,
		log:            opt.Logger.WithField("format", "perf"),
		demangle:       opt.Demangler,
		eventFilter:    opt.EventFilter,
		hasEventFilter: opt.EventFilter != "",
		nstacksPerJob:  collapse.DefaultNStacksPerJob,
	}
}

// EventFilter returns the event type samples are filtered on and whether it
// is known yet.
func (f *Folder) EventFilter() (string, bool) {
	return f.eventFilter, f.hasEventFilter
}

// PreProcess resolves the event filter before the input is split between
// workers, so that they all filter on the same event type. Stacks are
// processed one at a time until an event type is seen or the input ends.
func (f *Folder) PreProcess(r *bufio.Reader, occ *collapse.Occurrences) error {
	for !f.hasEventFilter {
		done, err := f.processSingleStack(r, occ)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

func (f *Folder) CollapseSingleThreaded(r *bufio.Reader, occ *collapse.Occurrences) error {
	for {
		done, err := f.processSingleStack(r, occ)
		if err != nil {
			f.resetStack()
			return err
		}
		if done {
			return nil
		}
	}
}

func (f *Folder) WouldEndStack(line []byte) bool {
	return collapse.IsBlank(line)
}

func (f *Folder) CloneAndResetStackContext() collapse.Folder {
	return &Folder{
		opt:            f.opt,
		log:            f.log,
		demangle:       f.demangle,
		eventFilter:    f.eventFilter,
		hasEventFilter: f.hasEventFilter,
		nstacksPerJob:  f.nstacksPerJob,
	}
}

func (f *Folder) NStacksPerJob() int     { return f.nstacksPerJob }
func (f *Folder) SetNStacksPerJob(n int) { f.nstacksPerJob = n }
func (f *Folder) NThreads() int          { return f.opt.NThreads }
func (f *Folder) SetNThreads(n int)      { f.opt.NThreads = n }

// processSingleStack reads lines up to and including the end of the next
// stack. It returns true once the input is exhausted.
func (f *Folder) processSingleStack(r *bufio.Reader, occ *collapse.Occurrences) (bool, error) {
	for {
		line, err := collapse.ReadLine(r, f.line)
		f.line = line
		if errors.Is(err, io.EOF) {
			f.afterEvent(occ)
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("read perf script output: %w", err)
		}
		if line[0] == '#' {
			continue
		}

		text := collapse.TrimRightSpace(string(line))
		switch {
		case text == "":
			f.afterEvent(occ)
			return false, nil
		case f.inEvent:
			f.onStackLine(text)
		default:
			f.onEventLine(text)
		}
	}
}

// afterEvent emits the finished stack, if any, and resets for the next one.
func (f *Folder) afterEvent(occ *collapse.Occurrences) {
	if f.inEvent && !f.skipStack {
		size := len(f.pname)
		for _, fn := range f.stack {
			size += len(fn) + 1
		}

		var b strings.Builder
		b.Grow(size)
		b.WriteString(f.pname)
		for i := len(f.stack) - 1; i >= 0; i-- {
			b.WriteByte(';')
			b.WriteString(f.stack[i])
		}
		occ.Add(b.String(), 1)
	}
	f.resetStack()
}

func (f *Folder) resetStack() {
	f.inEvent = false
	f.skipStack = false
	f.pname = ""
	clear(f.stack)
	f.stack = f.stack[:0]
}
