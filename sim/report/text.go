package report

import (
	"fmt"
	"io"

	sim "github.com/inference-sim/blocktime-sim/sim"
)

// TextSink prints observations as they occur and a per-step table on Render.
// Values print with two decimals; non-finite values print as +Inf, -Inf or NaN.
// With ShowSamples set, the raw arrival counts and sizes print before the
// first observation.
type TextSink struct {
	ShowSamples bool

	w   io.Writer
	err error
}

// NewTextSink creates a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) ObserveSamples(samples []sim.StepSample) {
	if !s.ShowSamples {
		return
	}
	counts := make([]int, len(samples))
	sizes := make([][]float64, len(samples))
	for t, sm := range samples {
		counts[t] = sm.Arrivals
		sizes[t] = sm.Sizes
	}
	s.printf("Arrival counts: %v\n", counts)
	s.printf("Sizes: %v\n", sizes)
}

func (s *TextSink) Observe(o sim.Observation) {
	switch o.Kind {
	case sim.ObservationBelowElapsed:
		s.printf("At time %.1f seconds, D < t: D = %.2f, V_total = %.2f, V_total/m = %.2f\n",
			o.Elapsed, o.Interval, o.Volume, o.VolumeRatio)
	case sim.ObservationAtReference:
		s.printf("At time %.1f seconds, t = d: V_total = %.2f, V_total/m = %.2f\n",
			o.Elapsed, o.Volume, o.VolumeRatio)
	}
}

// Render writes the table and reports the first write error seen since the
// sink was created, including errors from Observe.
func (s *TextSink) Render(res *sim.Result) error {
	s.printf("Time\tCumulative Frequency (objects/sec)\tCumulative Average Size (units)\t" +
		"Cumulative Size Change Rate (units/sec)\tDynamic Interval (sec)\n")
	series := res.Series
	for t := 0; t < series.Len(); t++ {
		s.printf("Time %.1f: Cumulative Frequency = %.2f, Cumulative Average Size = %.2f, "+
			"Cumulative Size Change Rate = %.2f, Dynamic Interval = %.2f\n",
			series.Elapsed[t], series.Frequency[t], series.AverageSize[t],
			series.SizeChangeRate[t], series.DynamicInterval[t])
	}
	if s.err != nil {
		return fmt.Errorf("writing report: %w", s.err)
	}
	return nil
}

func (s *TextSink) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}
