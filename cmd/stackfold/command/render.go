package command

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/debug"
	"github.com/danpilch/stackfold/pkg/output"
)

// outputFlags are shared by every command that prints folded stacks.
type outputFlags struct {
	format string
	top    int
	focus  string
	path   string
	timing bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.format, "format", "f", string(output.FormatFolded), "output format: folded, table, json or tsv")
	flags.IntVar(&o.top, "top", 0, "only show the N hottest stacks (table defaults to 20)")
	flags.StringVar(&o.focus, "focus", "", "only keep stacks containing this frame")
	flags.StringVarP(&o.path, "output", "o", "", "write to this file instead of stdout")
	flags.BoolVar(&o.timing, "timing", false, "print a per-phase timing report on stderr")
}

// render filters and prints occ.
func (o *outputFlags) render(cmd *cobra.Command, occ *collapse.Occurrences) error {
	format, err := output.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if o.focus != "" {
		occ = output.Focus(occ, o.focus)
	}

	w, closeOut, err := openOutput(cmd, o.path)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, w)
	formatter.SetTop(o.top)
	if err := formatter.Render(occ); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

// fold runs f over r, with timing instrumentation when requested, and
// renders the result.
func (o *outputFlags) fold(cmd *cobra.Command, f collapse.Folder, r io.Reader) error {
	if _, err := output.ParseFormat(o.format); err != nil {
		return err
	}

	var timed *debug.TimedFolder
	if o.timing {
		timed = debug.NewTimedFolder(f)
		f = timed
	}

	start := time.Now()
	occ, err := collapse.Fold(f, r)
	if err != nil {
		return err
	}
	if timed != nil {
		debug.TimingReport(cmd.ErrOrStderr(), timed.Timings(), time.Since(start))
	}
	return o.render(cmd, occ)
}
