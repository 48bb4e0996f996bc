package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDtraceScript(t *testing.T) {
	t.Parallel()

	require.Equal(t, "profile-99 { @[ustack()] = count(); }", dtraceScript(Options{Frequency: 99}))
	require.Equal(t, "profile-997 /pid == 12/ { @[ustack()] = count(); }", dtraceScript(Options{Frequency: 997, PID: 12}))
}
