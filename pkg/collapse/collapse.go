// Package collapse folds profiler stack output into "frame;frame;... count"
// lines, splitting the work across a pool of parsers.
package collapse

import "bufio"

// DefaultNStacksPerJob is the number of stacks handed to a worker at a time.
const DefaultNStacksPerJob = 100

// Folder is implemented by every profiler format parser.
//
// A Folder keeps per-stack parsing state, so one instance must never be used
// from two goroutines. The driver obtains extra instances for its workers
// through CloneAndResetStackContext.
type Folder interface {
	// PreProcess runs once on the head of the input before any work is split,
	// resolving whatever every worker needs to agree on. Stacks it consumes
	// are counted into occ.
	PreProcess(r *bufio.Reader, occ *Occurrences) error

	// CollapseSingleThreaded folds every stack in r into occ and leaves the
	// folder ready for another input.
	CollapseSingleThreaded(r *bufio.Reader, occ *Occurrences) error

	// IsApplicable reports whether input looks like this folder's format.
	IsApplicable(input string) Applicability

	// WouldEndStack reports whether line terminates a stack. The driver only
	// splits the input right after such lines.
	WouldEndStack(line []byte) bool

	// CloneAndResetStackContext returns an independent folder sharing this
	// one's options and resolved run state, with empty stack state.
	CloneAndResetStackContext() Folder

	NStacksPerJob() int
	SetNStacksPerJob(n int)
	NThreads() int
	SetNThreads(n int)
}

// Applicability is the answer of a format detector.
type Applicability int

const (
	// Inconclusive means more input is needed to decide.
	Inconclusive Applicability = iota
	Applicable
	NotApplicable
)

func (a Applicability) String() string {
	switch a {
	case Applicable:
		return "applicable"
	case NotApplicable:
		return "not applicable"
	default:
		return "inconclusive"
	}
}
