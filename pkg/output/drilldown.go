package output

import (
	"cmp"
	"slices"
	"strings"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// FunctionShare is the number of samples a function was on top of the stack.
type FunctionShare struct {
	Function string `json:"function"`
	Self     uint64 `json:"self"`
}

// SelfTime sums the samples of every leaf function and returns the n
// largest, all when n <= 0. Ties are ordered by name.
func SelfTime(occ *collapse.Occurrences, n int) []FunctionShare {
	self := make(map[string]uint64)
	for _, e := range occ.Entries() {
		leaf := e.Stack
		if i := strings.LastIndexByte(leaf, ';'); i >= 0 {
			leaf = leaf[i+1:]
		}
		self[leaf] += e.Count
	}

	shares := make([]FunctionShare, 0, len(self))
	for fn, count := range self {
		shares = append(shares, FunctionShare{Function: fn, Self: count})
	}
	slices.SortFunc(shares, func(a, b FunctionShare) int {
		if c := cmp.Compare(b.Self, a.Self); c != 0 {
			return c
		}
		return strings.Compare(a.Function, b.Function)
	})
	if n > 0 && n < len(shares) {
		shares = shares[:n]
	}
	return shares
}

// Focus returns the stacks that contain frame, with their counts.
func Focus(occ *collapse.Occurrences, frame string) *collapse.Occurrences {
	focused := collapse.NewOccurrences()
	for _, e := range occ.Entries() {
		if slices.Contains(strings.Split(e.Stack, ";"), frame) {
			focused.Add(e.Stack, e.Count)
		}
	}
	return focused
}
