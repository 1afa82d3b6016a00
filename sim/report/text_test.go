package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/blocktime-sim/sim"
	"github.com/inference-sim/blocktime-sim/sim/internal/testutil"
)

func constantRun(t *testing.T, sink Sink) *sim.Result {
	t.Helper()
	res, err := sim.Run(sim.DefaultParams(), testutil.Constant(5, 10), sim.FoldOptions{Observer: sink})
	require.NoError(t, err)
	return res
}

func TestTextSink_ConstantScenario_InlineObservationsThenTable(t *testing.T) {
	// GIVEN a text sink attached to the fold
	var buf bytes.Buffer
	sink := NewTextSink(&buf)

	// WHEN the constant scenario runs and is rendered
	res := constantRun(t, sink)
	require.NoError(t, sink.Render(res))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	// THEN 11 observation lines come first, in fold order
	require.Len(t, lines, 11+1+20)
	assert.Equal(t, "At time 5.5 seconds, D < t: D = 5.08, V_total = 550.00, V_total/m = 0.55", lines[0])
	assert.Equal(t, "At time 6.0 seconds, D < t: D = 5.08, V_total = 600.00, V_total/m = 0.60", lines[1])
	assert.Equal(t, "At time 6.0 seconds, t = d: V_total = 600.00, V_total/m = 0.60", lines[2])
	assert.Equal(t, "At time 10.0 seconds, D < t: D = 5.08, V_total = 1000.00, V_total/m = 1.00", lines[10])

	// AND the table follows with one row per step
	assert.True(t, strings.HasPrefix(lines[11], "Time\tCumulative Frequency"))
	assert.Equal(t, "Time 0.5: Cumulative Frequency = 10.00, Cumulative Average Size = 10.00, "+
		"Cumulative Size Change Rate = 0.00, Dynamic Interval = 5.08", lines[12])
	assert.True(t, strings.HasPrefix(lines[31], "Time 10.0: "))
}

func TestTextSink_ShowSamples_PrintsDrawsFirst(t *testing.T) {
	// GIVEN a text sink with raw draws enabled and a scripted two-step run
	var buf bytes.Buffer
	sink := NewTextSink(&buf)
	sink.ShowSamples = true
	p := sim.DefaultParams()
	p.TimePeriod = 1
	src := &testutil.ScriptedSource{Counts: []int{2, 1}, Sizes: []float64{1.5, 2, 3}}

	// WHEN it runs and renders
	res, err := sim.Run(p, src, sim.FoldOptions{Observer: sink})
	require.NoError(t, err)
	require.NoError(t, sink.Render(res))

	// THEN the counts and sizes come before the table
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "Arrival counts: [2 1]", lines[0])
	assert.Equal(t, "Sizes: [[1.5 2] [3]]", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Time\tCumulative Frequency"))
}

func TestTextSink_ShowSamplesOff_NoDraws(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf)
	sink.ObserveSamples([]sim.StepSample{{Arrivals: 1, Sizes: []float64{4}}})
	assert.Empty(t, buf.String())
}

func TestTextSink_NonFiniteValues_Printed(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf)
	res, err := sim.Run(sim.DefaultParams(), testutil.Constant(0, 0), sim.FoldOptions{Observer: sink})
	require.NoError(t, err)

	require.NoError(t, sink.Render(res))

	assert.Contains(t, buf.String(), "Dynamic Interval = +Inf")
	assert.Contains(t, buf.String(), "At time 6.0 seconds, t = d: V_total = 0.00, V_total/m = 0.00")
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("disk full")
}

func TestTextSink_WriteError_ReportedOnceOnRender(t *testing.T) {
	w := &failingWriter{}
	sink := NewTextSink(w)

	res := constantRun(t, sink)
	err := sink.Render(res)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, w.calls, "writes stop after the first failure")
}
