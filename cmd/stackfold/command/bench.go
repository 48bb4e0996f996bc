package command

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danpilch/stackfold/pkg/benchmark"
	"github.com/danpilch/stackfold/pkg/collapse"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		opts = benchmark.DefaultOptions()
		pf   perfFlags
	)
	cmd := &cobra.Command{
		Use:   "bench [flags] [FILE]",
		Short: "Time folding perf script output across job sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Iterations < 1 {
				return fmt.Errorf("--iterations must be at least 1")
			}
			for _, size := range opts.JobSizes {
				if size < 1 {
					return fmt.Errorf("job sizes must be at least 1, got %d", size)
				}
			}

			r, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()
			input, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			results, err := benchmark.Run(func() collapse.Folder { return pf.folder(a) }, input, opts)
			if err != nil {
				return err
			}
			benchmark.RenderResults(cmd.OutOrStdout(), results, benchmark.MeasureOverhead())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Iterations, "iterations", opts.Iterations, "timed runs per job size")
	flags.IntVar(&opts.Warmup, "warmup", opts.Warmup, "untimed runs per job size")
	flags.IntSliceVar(&opts.JobSizes, "job-sizes", opts.JobSizes, "stacks per job to try")
	pf.register(cmd)
	return cmd
}
