//go:build !linux && !darwin

package capture

import (
	"context"
	"fmt"
	"runtime"
)

func platformCapture(context.Context, Options) (*Result, error) {
	return nil, fmt.Errorf("capture is not supported on %s", runtime.GOOS)
}
