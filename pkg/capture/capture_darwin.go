//go:build darwin

package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse/dtrace"
)

func platformCapture(ctx context.Context, opts Options) (*Result, error) {
	// dtrace requires root
	if _, err := exec.LookPath("dtrace"); err != nil {
		return nil, fmt.Errorf("dtrace not found")
	}

	opts.Logger.WithFields(logrus.Fields{
		"pid":       opts.PID,
		"frequency": opts.Frequency,
		"seconds":   opts.seconds(),
	}).Info("running dtrace")

	if opts.Dtrace.Logger == nil {
		opts.Dtrace.Logger = opts.Logger
	}
	cmd := exec.CommandContext(ctx, "dtrace",
		"-x", "ustackframes=100",
		"-n", dtraceScript(opts),
		"-c", "sleep "+strconv.Itoa(opts.seconds()))
	occ, err := foldCommand(cmd, dtrace.NewFolder(opts.Dtrace))
	if err != nil {
		return nil, err
	}

	return &Result{
		Occurrences: occ,
		Tool:        "dtrace",
		Duration:    time.Duration(opts.seconds()) * time.Second,
	}, nil
}

func dtraceScript(opts Options) string {
	probe := fmt.Sprintf("profile-%d", opts.Frequency)
	if opts.PID > 0 {
		return fmt.Sprintf(`%s /pid == %d/ { @[ustack()] = count(); }`, probe, opts.PID)
	}
	return fmt.Sprintf(`%s { @[ustack()] = count(); }`, probe)
}
