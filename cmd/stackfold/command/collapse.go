package command

import (
	"github.com/spf13/cobra"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/collapse/dtrace"
	"github.com/danpilch/stackfold/pkg/collapse/guess"
	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

// perfFlags binds perf.Options to command line flags.
type perfFlags struct {
	opt          perf.Options
	all          bool
	stacksPerJob int
}

func (p *perfFlags) register(cmd *cobra.Command) {
	p.opt = perf.DefaultOptionsFor(parallelism)
	p.stacksPerJob = collapse.DefaultNStacksPerJob

	flags := cmd.Flags()
	flags.BoolVar(&p.opt.IncludePID, "pid", false, "include PID with process names")
	flags.BoolVar(&p.opt.IncludeTID, "tid", false, "include TID and PID with process names")
	flags.BoolVar(&p.opt.IncludeAddrs, "addrs", false, "include raw addresses where symbols can't be found")
	flags.BoolVar(&p.opt.AnnotateJIT, "jit", false, "annotate JIT functions with a _[j]")
	flags.BoolVar(&p.opt.AnnotateKernel, "kernel", false, "annotate kernel functions with a _[k]")
	flags.BoolVar(&p.all, "all", false, "annotate both JIT and kernel functions")
	flags.BoolVar(&p.opt.Demangle, "demangle", false, "demangle function names")
	flags.StringVar(&p.opt.EventFilter, "event-filter", "", "only consider samples of this event type (see perf list)")
	flags.IntVarP(&p.opt.NThreads, "nthreads", "n", p.opt.NThreads, "number of parser goroutines")
	flags.IntVar(&p.stacksPerJob, "stacks-per-job", p.stacksPerJob, "stacks handed to a parser goroutine at a time")
	_ = flags.MarkHidden("stacks-per-job")
}

func (p *perfFlags) folderOptions(a *app) perf.Options {
	opt := p.opt
	if p.all {
		opt.AnnotateJIT, opt.AnnotateKernel = true, true
	}
	opt.Logger = a.logger
	return opt
}

func (p *perfFlags) folder(a *app) *perf.Folder {
	f := perf.NewFolder(p.folderOptions(a))
	f.SetNStacksPerJob(p.stacksPerJob)
	return f
}

// dtraceFlags binds dtrace.Options to command line flags.
type dtraceFlags struct {
	opt          dtrace.Options
	stacksPerJob int
}

func (d *dtraceFlags) register(cmd *cobra.Command) {
	d.opt = dtrace.DefaultOptionsFor(parallelism)
	d.stacksPerJob = collapse.DefaultNStacksPerJob

	flags := cmd.Flags()
	flags.BoolVar(&d.opt.IncludeOffsets, "includeoffsets", false, "include function offsets (except leafs)")
	flags.BoolVar(&d.opt.IncludeModule, "includemodule", false, "keep the module name of every frame")
	flags.BoolVar(&d.opt.Demangle, "demangle", false, "demangle function names")
	flags.IntVarP(&d.opt.NThreads, "nthreads", "n", d.opt.NThreads, "number of parser goroutines")
	flags.IntVar(&d.stacksPerJob, "stacks-per-job", d.stacksPerJob, "stacks handed to a parser goroutine at a time")
	_ = flags.MarkHidden("stacks-per-job")
}

func (d *dtraceFlags) folderOptions(a *app) dtrace.Options {
	opt := d.opt
	opt.Logger = a.logger
	return opt
}

func (d *dtraceFlags) folder(a *app) *dtrace.Folder {
	f := dtrace.NewFolder(d.folderOptions(a))
	f.SetNStacksPerJob(d.stacksPerJob)
	return f
}

func newPerfCmd(a *app) *cobra.Command {
	var (
		pf  perfFlags
		out outputFlags
	)
	cmd := &cobra.Command{
		Use:   "perf [flags] [FILE]",
		Short: "Fold the output of perf script",
		Example: `  perf record -F 99 -a -g -- sleep 30
  perf script | stackfold perf --all > out.folded`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()
			return out.fold(cmd, pf.folder(a), r)
		},
	}
	pf.register(cmd)
	out.register(cmd)
	return cmd
}

func newDtraceCmd(a *app) *cobra.Command {
	var (
		df  dtraceFlags
		out outputFlags
	)
	cmd := &cobra.Command{
		Use:   "dtrace [flags] [FILE]",
		Short: "Fold the output of a dtrace ustack() aggregation",
		Example: `  dtrace -x ustackframes=100 -n 'profile-97 /pid == 12345/ { @[ustack()] = count(); } tick-60s { exit(0); }' -o out.stacks
  stackfold dtrace out.stacks > out.folded`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()
			return out.fold(cmd, df.folder(a), r)
		},
	}
	df.register(cmd)
	out.register(cmd)
	return cmd
}

func newGuessCmd(a *app) *cobra.Command {
	var (
		demangle bool
		nthreads int
		out      outputFlags
	)
	cmd := &cobra.Command{
		Use:   "guess [flags] [FILE]",
		Short: "Detect the input format and fold it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			opt := guess.DefaultOptions()
			opt.Logger = a.logger
			opt.Perf.Demangle, opt.Dtrace.Demangle = demangle, demangle
			opt.Perf.NThreads, opt.Dtrace.NThreads = nthreads, nthreads

			c, rest, err := guess.Detect(r, guess.Candidates(opt))
			if err != nil {
				return err
			}
			if c == nil {
				return out.render(cmd, collapse.NewOccurrences())
			}
			a.logger.WithField("format", c.Name).Info("detected stack format")
			return out.fold(cmd, c.Folder, rest)
		},
	}
	cmd.Flags().BoolVar(&demangle, "demangle", false, "demangle function names")
	cmd.Flags().IntVarP(&nthreads, "nthreads", "n", parallelism(), "number of parser goroutines")
	out.register(cmd)
	return cmd
}
