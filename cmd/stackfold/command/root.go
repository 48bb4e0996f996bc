// Package command implements the stackfold command line.
package command

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/debug"
)

// app holds the state shared by every subcommand.
type app struct {
	logger *logrus.Logger
	hook   *debug.DiagnosticsHook

	verbose     bool
	quiet       bool
	pprofAddr   string
	diagnostics bool
	stopPprof   func()
}

// parallelism is the default parser thread count: the CPUs the process may
// run on, capped by GOMAXPROCS so container quotas are honoured.
func parallelism() int {
	return min(collapse.AvailableParallelism(), runtime.GOMAXPROCS(0))
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logrus.New()}

	rootCmd := &cobra.Command{
		Use:   "stackfold [flags] <subcommand>",
		Short: "Fold sampled stack traces into flame graph input",
		Long: `stackfold turns the output of perf script or a dtrace ustack()
aggregation into folded stacks: one line per unique stack, frames joined
by ';' from the root, followed by the number of samples.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.teardown(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log progress and debug information")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	flags.StringVar(&a.pprofAddr, "pprof", "", "serve pprof on this address while running (e.g. localhost:6060)")
	flags.BoolVar(&a.diagnostics, "diagnostics", false, "summarise parser warnings on stderr when done")

	rootCmd.AddCommand(
		newPerfCmd(a),
		newDtraceCmd(a),
		newGuessCmd(a),
		newCaptureCmd(a),
		newBenchCmd(a),
	)
	return rootCmd
}

// Initialize sets GOMAXPROCS from the container CPU quota and runs the
// command line.
func Initialize() error {
	undo, err := maxprocs.Set(maxprocs.Logger(logrus.Debugf))
	defer undo()
	if err != nil {
		logrus.WithError(err).Warn("failed to set GOMAXPROCS")
	}
	return NewRootCmd().Execute()
}

func (a *app) setup(stderr io.Writer) error {
	if a.verbose && a.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	a.logger.SetOutput(stderr)
	a.logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000000",
		FullTimestamp:   true,
	})
	switch {
	case a.verbose:
		a.logger.SetLevel(logrus.DebugLevel)
	case a.quiet:
		a.logger.SetLevel(logrus.ErrorLevel)
	default:
		a.logger.SetLevel(logrus.WarnLevel)
	}

	if a.diagnostics {
		a.hook = debug.NewDiagnosticsHook()
		a.logger.AddHook(a.hook)
	}

	if a.pprofAddr != "" {
		stop, err := debug.StartPprofServer(a.pprofAddr, a.logger)
		if err != nil {
			return err
		}
		a.stopPprof = stop
	}
	return nil
}

func (a *app) teardown(stderr io.Writer) {
	if a.hook != nil {
		debug.DiagnosticsReport(stderr, a.hook.Diagnostics())
	}
	if a.stopPprof != nil {
		a.stopPprof()
	}
}

// openOutput returns stdout, or the named file when path is set.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
