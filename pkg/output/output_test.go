package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackfold/pkg/collapse"
)

func testOccurrences() *collapse.Occurrences {
	occ := collapse.NewOccurrences()
	occ.Add("java;main;run;compute", 1200)
	occ.Add("java;main;run;io;read", 30)
	occ.Add("java;main;gc", 2)
	occ.Add("swapper;cpu_idle;compute", 8)
	return occ
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"folded", "table", "JSON", "tsv"} {
		_, err := ParseFormat(s)
		require.NoError(t, err, s)
	}
	_, err := ParseFormat("svg")
	require.Error(t, err)
}

func TestRenderFolded(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, NewFormatter(FormatFolded, &out).Render(testOccurrences()))
	require.Equal(t,
		"java;main;gc 2\njava;main;run;compute 1200\njava;main;run;io;read 30\nswapper;cpu_idle;compute 8\n",
		out.String())
}

func TestRenderTSV(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	f := NewFormatter(FormatTSV, &out)
	f.SetTop(2)
	require.NoError(t, f.Render(testOccurrences()))
	require.Equal(t,
		"COUNT\tSHARE\tSTACK\n1200\t0.9677\tjava;main;run;compute\n30\t0.0242\tjava;main;run;io;read\n",
		out.String())
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &out).Render(testOccurrences()))

	var got struct {
		Total  uint64           `json:"total"`
		Unique int              `json:"unique"`
		Stacks []collapse.Entry `json:"stacks"`
		Self   []FunctionShare  `json:"self"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, uint64(1240), got.Total)
	require.Equal(t, 4, got.Unique)
	require.Len(t, got.Stacks, 4)
	require.Equal(t, "java;main;gc", got.Stacks[0].Stack)
	require.Equal(t, FunctionShare{Function: "compute", Self: 1208}, got.Self[0])
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &out).Render(testOccurrences()))

	s := out.String()
	require.Contains(t, s, "Hottest Stacks")
	require.Contains(t, s, "Self Time")
	require.Contains(t, s, "1,200")
	require.Contains(t, s, "…;main;run;io;read")
	require.Contains(t, s, "Summary: 1,240 samples in 4 unique stacks")
}

func TestRenderTableEmpty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &out).Render(collapse.NewOccurrences()))
	require.Contains(t, out.String(), "Summary: 0 samples in 0 unique stacks")
}

func TestSelfTime(t *testing.T) {
	t.Parallel()

	require.Equal(t, []FunctionShare{
		{Function: "compute", Self: 1208},
		{Function: "read", Self: 30},
		{Function: "gc", Self: 2},
	}, SelfTime(testOccurrences(), 0))
	require.Len(t, SelfTime(testOccurrences(), 1), 1)
}

func TestFocus(t *testing.T) {
	t.Parallel()

	focused := Focus(testOccurrences(), "run")
	require.Equal(t, []collapse.Entry{
		{Stack: "java;main;run;compute", Count: 1200},
		{Stack: "java;main;run;io;read", Count: 30},
	}, focused.Entries())

	// Whole frames only.
	require.Zero(t, Focus(testOccurrences(), "ru").Len())
}

func TestDepthHistogramAndSparkline(t *testing.T) {
	t.Parallel()

	hist := DepthHistogram(testOccurrences())
	require.Equal(t, []uint64{0, 0, 0, 10, 1200, 30}, hist)

	line := Sparkline(hist)
	require.Equal(t, 6, len([]rune(line)))
	require.True(t, strings.HasPrefix(line, "▁▁▁"))
	require.Equal(t, '█', []rune(line)[4])
	require.Empty(t, Sparkline(nil))
	require.Equal(t, "▁▁", Sparkline([]uint64{0, 0}))
}

func TestHeat(t *testing.T) {
	t.Parallel()

	require.Equal(t, HeatHot, HeatOf(0.5))
	require.Equal(t, HeatWarm, HeatOf(0.05))
	require.Equal(t, HeatCold, HeatOf(0.01))
	require.Zero(t, Share(1, 0))
	require.InDelta(t, 0.25, Share(1, 4), 1e-9)
}
