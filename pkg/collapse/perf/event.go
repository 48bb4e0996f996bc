package perf

import (
	"strings"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// onEventLine handles the header of a sample, like:
//
//	java 25607 4794564.109216: cycles:
//	java 12688 [002] 6544038.708352: cpu-clock:
//	V8 WorkerThread 25607 4794564.109216: cycles:
//	java 24636/25607 [000] 4794564.109216: cycles:
//	java 12688/12764 6544038.708352: cpu-clock:
//	V8 WorkerThread 24636/25607 [000] 94564.109216: cycles:
//	vote   913    72.176760:     257597 cycles:uppp:
func (f *Folder) onEventLine(line string) {
	comm, pid, tid, ok := eventLineParts(line)
	if !ok {
		f.log.WithField("line", line).Warn("weird event line")
		return
	}
	f.inEvent = true

	if event, ok := eventType(line); ok {
		if f.hasEventFilter {
			if event != f.eventFilter {
				f.skipStack = true
				return
			}
		} else {
			// Merging different event types, such as instructions and
			// cycles, produces misleading results.
			f.log.WithField("event", event).Info("filtering for events of type")
			f.eventFilter = event
			f.hasEventFilter = true
		}
	}

	f.pname = processIdentity(comm, pid, tid, f.opt.IncludePID, f.opt.IncludeTID)
}

// eventLineParts finds the first all-digit word, optionally "pid/tid", that
// follows a space. The text before it is the command name. When only one
// number is printed it is the TID and the PID is reported as "?".
func eventLineParts(line string) (comm, pid, tid string, ok bool) {
	var (
		wordStart    int
		allDigits    bool
		lastWasSpace bool
		slashAt      = -1
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ':
			if allDigits && !lastWasSpace {
				if slashAt >= 0 {
					pid, tid = line[wordStart:slashAt], line[slashAt+1:i]
				} else {
					pid, tid = "?", line[wordStart:i]
				}
				return collapse.TrimSpace(line[:wordStart-1]), pid, tid, true
			}
			wordStart = i + 1
			allDigits = true
		case c == '/':
			if allDigits {
				slashAt = i
			}
		case c >= '0' && c <= '9':
		default:
			allDigits = false
			slashAt = -1
		}
		lastWasSpace = c == ' '
	}
	return "", "", "", false
}

// eventType returns the last word of the header without its trailing colon.
// Headers whose last word has no colon carry no event type.
func eventType(line string) (string, bool) {
	last := line[strings.LastIndexByte(line, ' ')+1:]
	if !strings.HasSuffix(last, ":") {
		return "", false
	}
	return last[:len(last)-1], true
}

// processIdentity builds the root frame: the command name with spaces
// replaced by underscores, optionally followed by "-pid" or "-pid/tid".
func processIdentity(comm, pid, tid string, includePID, includeTID bool) string {
	name := strings.ReplaceAll(comm, " ", "_")
	switch {
	case includeTID:
		return name + "-" + pid + "/" + tid
	case includePID:
		return name + "-" + pid
	default:
		return name
	}
}
