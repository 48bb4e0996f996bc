package command

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/stackfold/pkg/capture"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		opts = capture.DefaultOptions()
		pf   perfFlags
		df   dtraceFlags
		out  outputFlags
	)
	cmd := &cobra.Command{
		Use:   "capture [flags]",
		Short: "Sample stacks with perf (Linux) or dtrace (macOS) and fold them",
		Long: `capture runs the platform profiler for --duration and folds what it
recorded. It usually needs root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// dtrace shares --demangle and --nthreads with perf.
			df.opt.Demangle = pf.opt.Demangle
			df.opt.NThreads = pf.opt.NThreads

			opts.Logger = a.logger
			opts.Perf = pf.folderOptions(a)
			opts.Dtrace = df.folderOptions(a)

			res, err := capture.Capture(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"tool":     res.Tool,
				"samples":  res.Occurrences.Total(),
				"stacks":   res.Occurrences.Len(),
				"duration": res.Duration,
			}).Info("capture complete")
			return out.render(cmd, res.Occurrences)
		},
	}

	flags := cmd.Flags()
	flags.DurationVarP(&opts.Duration, "duration", "d", opts.Duration, "how long to sample for")
	flags.IntVarP(&opts.Frequency, "frequency", "F", opts.Frequency, "sampling frequency in Hz")
	flags.IntVarP(&opts.PID, "process", "p", 0, "only sample this process (0 = system-wide)")
	pf.register(cmd)
	df.opt = opts.Dtrace
	flags.BoolVar(&df.opt.IncludeOffsets, "includeoffsets", false, "include function offsets (dtrace)")
	flags.BoolVar(&df.opt.IncludeModule, "includemodule", false, "keep the module name of every frame (dtrace)")
	out.register(cmd)
	return cmd
}
