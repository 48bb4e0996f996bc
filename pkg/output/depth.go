package output

import (
	"strings"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// DepthHistogram returns the number of samples per stack depth, indexed by
// the number of frames (the root process frame included).
func DepthHistogram(occ *collapse.Occurrences) []uint64 {
	var hist []uint64
	for _, e := range occ.Entries() {
		depth := strings.Count(e.Stack, ";") + 1
		for len(hist) <= depth {
			hist = append(hist, 0)
		}
		hist[depth] += e.Count
	}
	return hist
}

// block characters from lowest to highest
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values relative to their maximum; zero is always the
// lowest block.
func Sparkline(values []uint64) string {
	var peak uint64
	for _, v := range values {
		peak = max(peak, v)
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if peak > 0 {
			idx = int(float64(v) / float64(peak) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
