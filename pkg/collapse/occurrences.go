package collapse

import (
	"bufio"
	"io"
	"sort"
	"strconv"
)

// Entry is one folded stack and its sample count.
type Entry struct {
	Stack string `json:"stack"`
	Count uint64 `json:"count"`
}

// Occurrences counts how many samples produced each folded stack.
// It is not safe for concurrent use; workers each own one and are merged
// after they finish.
type Occurrences struct {
	counts map[string]uint64
}

// NewOccurrences creates an empty aggregator.
func NewOccurrences() *Occurrences {
	return &Occurrences{counts: make(map[string]uint64)}
}

// Add increments the count of stack by n.
func (o *Occurrences) Add(stack string, n uint64) {
	o.counts[stack] += n
}

// Merge adds every count of other into o.
func (o *Occurrences) Merge(other *Occurrences) {
	for stack, n := range other.counts {
		o.counts[stack] += n
	}
}

// Count returns the count recorded for stack.
func (o *Occurrences) Count(stack string) uint64 {
	return o.counts[stack]
}

// Len returns the number of unique stacks.
func (o *Occurrences) Len() int {
	return len(o.counts)
}

// Total returns the number of samples across all stacks.
func (o *Occurrences) Total() uint64 {
	var total uint64
	for _, n := range o.counts {
		total += n
	}
	return total
}

// Entries returns all stacks sorted by stack string.
func (o *Occurrences) Entries() []Entry {
	entries := make([]Entry, 0, len(o.counts))
	for stack, n := range o.counts {
		entries = append(entries, Entry{Stack: stack, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Stack < entries[j].Stack
	})
	return entries
}

// Top returns the n hottest stacks, ties broken by stack string.
// A non-positive n returns every stack.
func (o *Occurrences) Top(n int) []Entry {
	entries := o.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// WriteTo writes the folded stacks sorted by stack string, one
// "<stack> <count>" line each.
func (o *Occurrences) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var (
		written int64
		buf     []byte
	)
	for _, e := range o.Entries() {
		buf = append(buf[:0], e.Stack...)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, e.Count, 10)
		buf = append(buf, '\n')
		n, err := bw.Write(buf)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
