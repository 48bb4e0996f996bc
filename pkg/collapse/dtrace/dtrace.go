// Package dtrace folds the output of a DTrace `@[ustack()] = count();`
// aggregation.
package dtrace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/symbol"
)

// Options configures a dtrace Folder.
type Options struct {
	// IncludeOffsets keeps "+0x..." offsets on frames.
	IncludeOffsets bool
	// IncludeModule keeps the "module`" prefix of frames.
	IncludeModule bool
	// Demangle runs function names through Demangler.
	Demangle bool
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
	return Options{NThreads: p.Threads()}
}

// Folder is a stack collapser for DTrace stack aggregations. Stacks are
// printed leaf first and terminated by their count.
type Folder struct {
	opt           Options
	log           logrus.FieldLogger
	nstacksPerJob int

	stack []string // leaf first
	line  []byte
}

// NewFolder creates a Folder from opt.
func NewFolder(opt Options) *Folder {
	if opt.NThreads < 1 {
		opt.NThreads = 1
	}
	if opt.Demangler == nil {
		opt.Demangler = symbol.Demangle
	}
	if opt.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opt.Logger = logger
	}
	return &Folder{
		opt:           opt,
		log:           opt.Logger.WithField("format", "dtrace"),
		nstacksPerJob: collapse.DefaultNStacksPerJob,
	}
}

// PreProcess skips the probe header, everything up to the first blank line.
func (f *Folder) PreProcess(r *bufio.Reader, _ *collapse.Occurrences) error {
	for {
		line, err := collapse.ReadLine(r, f.line)
		f.line = line
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dtrace output: %w", err)
		}
		if collapse.IsBlank(line) {
			return nil
		}
	}
}

func (f *Folder) CollapseSingleThreaded(r *bufio.Reader, occ *collapse.Occurrences) error {
	defer f.reset()
	for {
		line, err := collapse.ReadLine(r, f.line)
		f.line = line
		if errors.Is(err, io.EOF) {
			if len(f.stack) > 0 {
				f.log.WithField("frames", len(f.stack)).Warn("stack without count at end of input")
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dtrace output: %w", err)
		}

		text := collapse.TrimSpace(string(line))
		if text == "" {
			continue
		}
		if count, ok := parseCount(text); ok {
			f.onStackEnd(occ, count)
			continue
		}
		f.stack = append(f.stack, f.frame(text))
	}
}

// IsApplicable skips the header, then expects frame lines (with a module
// backtick or a raw 0x address) followed by a count line.
func (f *Folder) IsApplicable(input string) collapse.Applicability {
	var foundEmpty, foundFrame bool
	for _, line := range strings.Split(input, "\n") {
		line = collapse.TrimSpace(line)
		switch {
		case line == "":
			foundEmpty = true
		case !foundEmpty:
		case isCountLine(line):
			if foundFrame {
				return collapse.Applicable
			}
			return collapse.NotApplicable
		case strings.Contains(line, "`") || isHexAddress(line):
			foundFrame = true
		default:
			return collapse.NotApplicable
		}
	}
	return collapse.Inconclusive
}

func (f *Folder) WouldEndStack(line []byte) bool {
	_, ok := parseCount(collapse.TrimSpace(string(line)))
	return ok
}

func (f *Folder) CloneAndResetStackContext() collapse.Folder {
	return &Folder{
		opt:           f.opt,
		log:           f.log,
		nstacksPerJob: f.nstacksPerJob,
	}
}

func (f *Folder) NStacksPerJob() int     { return f.nstacksPerJob }
func (f *Folder) SetNStacksPerJob(n int) { f.nstacksPerJob = n }
func (f *Folder) NThreads() int          { return f.opt.NThreads }
func (f *Folder) SetNThreads(n int)      { f.opt.NThreads = n }

func (f *Folder) onStackEnd(occ *collapse.Occurrences, count uint64) {
	if len(f.stack) == 0 {
		return
	}
	frames := make([]string, 0, len(f.stack))
	for i := len(f.stack) - 1; i >= 0; i-- {
		frames = append(frames, f.stack[i])
	}
	occ.Add(strings.Join(frames, ";"), count)
	f.reset()
}

func (f *Folder) reset() {
	clear(f.stack)
	f.stack = f.stack[:0]
}

// frame turns "libc.so.1`__forkx+0xb" into a frame name.
func (f *Folder) frame(line string) string {
	if !f.opt.IncludeOffsets {
		if i := strings.LastIndexByte(line, '+'); i > 0 {
			line = line[:i]
		}
	}

	module, fn := "", line
	if i := strings.IndexByte(line, '`'); i >= 0 {
		module, fn = line[:i+1], line[i+1:]
	}
	if f.opt.Demangle {
		fn = f.opt.Demangler(fn)
	}
	fn = stripCPPArgs(fn)

	name := fn
	if f.opt.IncludeModule {
		name = module + fn
	}
	if name == "" {
		return "-"
	}
	return strings.ReplaceAll(name, ";", ":")
}

// stripCPPArgs removes argument and template lists following a C++ scope,
// so "ns::Foo<int>::bar(int)" becomes "ns::Foo<int>::bar".
func stripCPPArgs(fn string) string {
	scope := strings.Index(fn, "::")
	if scope < 0 {
		return fn
	}
	if i := strings.LastIndexAny(fn[scope+2:], "(<"); i >= 0 {
		return fn[:scope+2+i]
	}
	return fn
}

func parseCount(line string) (uint64, bool) {
	if !isCountLine(line) {
		return 0, false
	}
	n, err := strconv.ParseUint(line, 10, 64)
	return n, err == nil
}

func isCountLine(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := strconv.ParseUint(s[2:], 16, 64)
	return err == nil
}
