package command

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackfold/pkg/collapse/guess"
)

func fixturePath(format, name string) string {
	return filepath.Join("..", "..", "..", "pkg", "collapse", format, "testdata", name)
}

func run(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	root.SetIn(stdin)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

const goStacksFolded = "gotest;runtime.goexit;runtime.main;main.fetch 1\n" +
	"gotest;runtime.goexit;runtime.main;main.fetch;net/http.(*Client).Do 1\n"

func TestPerfFromStdin(t *testing.T) {
	t.Parallel()

	f, err := os.Open(fixturePath("perf", "go-stacks.txt"))
	require.NoError(t, err)
	defer f.Close()

	stdout, _, err := run(t, f, "perf", "-n", "2")
	require.NoError(t, err)
	require.Equal(t, goStacksFolded, stdout)
}

func TestPerfFromFileWithAnnotations(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, "perf", "--all", fixturePath("perf", "java-inline.txt"))
	require.NoError(t, err)
	require.Equal(t,
		"java;start_thread;JavaCalls::call_helper;[perf-24636.map]_[j];Interpreter_[j];com/example/Foo:.bar_[j];com/example/Foo:.baz_[i];java/io/PrintStream:::print_[j] 2\n"+
			"java;start_thread;schedule_[k];__schedule_[k] 1\n",
		stdout)
}

func TestPerfGzipInput(t *testing.T) {
	t.Parallel()

	input, err := os.ReadFile(fixturePath("perf", "go-stacks.txt"))
	require.NoError(t, err)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err = zw.Write(input)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	stdout, _, err := run(t, &compressed, "perf", "-")
	require.NoError(t, err)
	require.Equal(t, goStacksFolded, stdout)
}

func TestPerfOutputOptions(t *testing.T) {
	t.Parallel()

	path := fixturePath("perf", "go-stacks.txt")

	stdout, _, err := run(t, nil, "perf", "--focus", "net/http.(*Client).Do", path)
	require.NoError(t, err)
	require.Equal(t, "gotest;runtime.goexit;runtime.main;main.fetch;net/http.(*Client).Do 1\n", stdout)

	stdout, _, err = run(t, nil, "perf", "-f", "tsv", "--top", "1", path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(stdout, "\n"))
	require.True(t, strings.HasPrefix(stdout, "COUNT\tSHARE\tSTACK\n1\t0.5000\t"))

	stdout, _, err = run(t, nil, "perf", "-f", "table", path)
	require.NoError(t, err)
	require.Contains(t, stdout, "Hottest Stacks")

	_, _, err = run(t, nil, "perf", "-f", "svg", path)
	require.ErrorContains(t, err, "unknown output format")
}

func TestPerfWritesOutputFile(t *testing.T) {
	t.Parallel()

	dst := filepath.Join(t.TempDir(), "out.folded")
	stdout, _, err := run(t, nil, "perf", "-o", dst, fixturePath("perf", "go-stacks.txt"))
	require.NoError(t, err)
	require.Empty(t, stdout)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, goStacksFolded, string(b))
}

func TestPerfTimingAndDiagnostics(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, nil, "perf", "--timing", "--diagnostics", fixturePath("perf", "weird-lines.txt"))
	require.NoError(t, err)
	require.Contains(t, stderr, "Collapse Timing Report")
	require.Contains(t, stderr, "Parser Diagnostics")
	require.Contains(t, stderr, "weird event line")

	// Only logged levels are counted.
	_, stderr, err = run(t, nil, "perf", "--diagnostics", "-q", fixturePath("perf", "weird-lines.txt"))
	require.NoError(t, err)
	require.NotContains(t, stderr, "Parser Diagnostics")
}

func TestPerfMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, nil, "perf", filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDtrace(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, "dtrace", "--includemodule", fixturePath("dtrace", "bash.txt"))
	require.NoError(t, err)
	require.Equal(t,
		"bash`_start;bash`main;bash`execute_command_internal;bash`make_child;libc.so.1`fork;libc.so.1`__forkx 7\n"+
			"bash`_start;bash`main;libc.so.1`__write 2\n",
		stdout)
}

func TestGuess(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, "guess", fixturePath("perf", "go-stacks.txt"))
	require.NoError(t, err)
	require.Equal(t, goStacksFolded, stdout)

	stdout, _, err = run(t, nil, "guess", fixturePath("dtrace", "bash.txt"))
	require.NoError(t, err)
	require.Equal(t, "_start;main;__write 2\n_start;main;execute_command_internal;make_child;fork;__forkx 7\n", stdout)

	stdout, _, err = run(t, strings.NewReader(""), "guess")
	require.NoError(t, err)
	require.Empty(t, stdout)

	_, _, err = run(t, strings.NewReader("main;foo 1\n"), "guess")
	require.ErrorIs(t, err, guess.ErrNoApplicableFormat)
}

func TestBench(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, "bench", "--iterations", "1", "--warmup", "0", "--job-sizes", "1,2", fixturePath("perf", "java-inline.txt"))
	require.NoError(t, err)
	require.Contains(t, stdout, "Collapse Benchmark Results")

	_, _, err = run(t, nil, "bench", "--iterations", "0", fixturePath("perf", "java-inline.txt"))
	require.Error(t, err)

	_, _, err = run(t, nil, "bench", "--job-sizes", "0", fixturePath("perf", "java-inline.txt"))
	require.Error(t, err)
}

func TestGlobalFlags(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, nil, "perf", "-v", "-q")
	require.ErrorContains(t, err, "mutually exclusive")

	_, _, err = run(t, nil, "capture", "extra")
	require.Error(t, err)
}
