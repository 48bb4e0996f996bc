package perf

import (
	"strings"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// IsApplicable checks that the first line that is neither blank nor a
// comment is an event line, and that the line right after it is a stack
// line.
func (f *Folder) IsApplicable(input string) collapse.Applicability {
	lastWasEvent := false
	for _, line := range strings.Split(input, "\n") {
		line = collapse.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "" {
			lastWasEvent = false
			continue
		}

		if lastWasEvent {
			if _, _, _, ok := stackLineParts(line); ok {
				return collapse.Applicable
			}
			return collapse.NotApplicable
		}
		if _, _, _, ok := eventLineParts(line); !ok {
			return collapse.NotApplicable
		}
		lastWasEvent = true
	}
	return collapse.Inconclusive
}
