package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordArgs(t *testing.T) {
	t.Parallel()

	opts := Options{Duration: 5 * time.Second, Frequency: 99}
	require.Equal(t,
		[]string{"record", "-F", "99", "-g", "-o", "/tmp/x/perf.data", "-a", "--", "sleep", "5"},
		recordArgs(opts, "/tmp/x/perf.data"))

	opts.PID = 4242
	require.Equal(t,
		[]string{"record", "-F", "99", "-g", "-o", "/tmp/x/perf.data", "-p", "4242", "--", "sleep", "5"},
		recordArgs(opts, "/tmp/x/perf.data"))
}
