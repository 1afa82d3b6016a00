package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// StepSample holds the synthetic arrivals of one step window.
type StepSample struct {
	Arrivals int       `yaml:"arrivals"`
	Sizes    []float64 `yaml:"sizes"` // len(Sizes) == Arrivals; negative sizes are kept
}

// Volume returns the total size of the step's arrivals.
func (s StepSample) Volume() float64 {
	v := 0.0
	for _, x := range s.Sizes {
		v += x
	}
	return v
}

// Series holds the cumulative statistics, index-aligned to Elapsed.
// Entry t depends only on steps 0..t.
type Series struct {
	Elapsed            []float64 `yaml:"elapsed"`
	Frequency          []float64 `yaml:"frequency"`
	AverageSize        []float64 `yaml:"average_size"`
	SizeChangeRate     []float64 `yaml:"size_change_rate"`
	DynamicInterval    []float64 `yaml:"dynamic_interval"`
	CumulativeArrivals []int     `yaml:"cumulative_arrivals"`
	CumulativeVolume   []float64 `yaml:"cumulative_volume"`
}

func newSeries(n int) Series {
	return Series{
		Elapsed:            make([]float64, n),
		Frequency:          make([]float64, n),
		AverageSize:        make([]float64, n),
		SizeChangeRate:     make([]float64, n),
		DynamicInterval:    make([]float64, n),
		CumulativeArrivals: make([]int, n),
		CumulativeVolume:   make([]float64, n),
	}
}

// Len returns the number of steps in the series.
func (s Series) Len() int {
	return len(s.Elapsed)
}

// Result is the outcome of one run. Non-finite DynamicInterval values are
// valid results, not errors.
type Result struct {
	Params       Params        `yaml:"params"`
	Samples      []StepSample  `yaml:"-"`
	Series       Series        `yaml:"series"`
	Observations []Observation `yaml:"observations"`
}

// FoldOptions tunes the fold. The zero value uses exact equality and no observer.
type FoldOptions struct {
	// Observer, if non-nil, receives each observation inline.
	Observer Observer
	// EqualityTolerance is an opt-in absolute tolerance for the
	// elapsed == reference_interval check. Zero means exact float equality,
	// which only fires when (t+1)*step_size is bit-identical to d.
	EqualityTolerance float64
}

// DynamicInterval computes D = ((α·m·d)/i + r·i) / (frequency + averageSize + changeRate).
// A zero denominator yields ±Inf or NaN; there is no guard.
func DynamicInterval(p Params, frequency, averageSize, changeRate float64) float64 {
	numerator := (p.Alpha*p.Capacity*p.ReferenceInterval)/p.IdealCount + p.ChangeRate*p.IdealCount
	return numerator / (frequency + averageSize + changeRate)
}

// Run validates p, draws the synthetic arrivals from src and folds them.
func Run(p Params, src RandomSource, opts FoldOptions) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logrus.Infof("Starting run: %d steps of %vs, arrival_rate=%v, size=N(%v, %v)",
		p.NumSteps(), p.StepSize, p.ArrivalRate, p.SizeMean, p.SizeStdDev)

	samples := Generate(p, src)
	if so, ok := opts.Observer.(SampleObserver); ok {
		so.ObserveSamples(samples)
	}
	res := Fold(p, samples, opts)

	logrus.Infof("Run complete: %d observations", len(res.Observations))
	return res, nil
}

// Generate draws every step's arrival count first, then each step's sizes
// in step order. Steps are independent here; only the draw order couples them.
func Generate(p Params, src RandomSource) []StepSample {
	n := p.NumSteps()
	samples := make([]StepSample, n)
	mean := p.ArrivalRate * p.StepSize
	for t := range samples {
		samples[t].Arrivals = src.Poisson(mean)
	}
	for t := range samples {
		sizes := make([]float64, samples[t].Arrivals)
		for k := range sizes {
			sizes[k] = src.Normal(p.SizeMean, p.SizeStdDev)
		}
		samples[t].Sizes = sizes
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		counts := make([]int, n)
		for t, s := range samples {
			counts[t] = s.Arrivals
		}
		logrus.Debugf("Arrival counts: %v", counts)
		for t, s := range samples {
			logrus.Debugf("Sizes[%d]: %v", t, s.Sizes)
		}
	}
	return samples
}

// Fold computes the cumulative series over samples in one forward pass;
// p is assumed to be valid and arrival counts are taken from len(Sizes).
// Running accumulators replace a per-step recompute from step 0; the change
// rate uses a running sum of consecutive differences across the concatenated
// sizes.
func Fold(p Params, samples []StepSample, opts FoldOptions) *Result {
	res := &Result{
		Params:       p,
		Samples:      samples,
		Series:       newSeries(len(samples)),
		Observations: make([]Observation, 0),
	}

	var (
		arrivals int     // n
		volume   float64 // V
		diffSum  float64 // sum of consecutive size differences
		last     float64 // most recent size seen
	)
	for t, s := range samples {
		for _, x := range s.Sizes {
			if arrivals > 0 {
				diffSum += x - last
			}
			last = x
			arrivals++
		}
		volume += s.Volume()

		elapsed := p.Elapsed(t)
		frequency := float64(arrivals) / elapsed
		averageSize := 0.0
		if arrivals > 0 {
			averageSize = volume / float64(arrivals)
		}
		changeRate := 0.0
		if arrivals > 1 {
			changeRate = diffSum / float64(arrivals-1)
		}
		interval := DynamicInterval(p, frequency, averageSize, changeRate)

		res.Series.Elapsed[t] = elapsed
		res.Series.Frequency[t] = frequency
		res.Series.AverageSize[t] = averageSize
		res.Series.SizeChangeRate[t] = changeRate
		res.Series.DynamicInterval[t] = interval
		res.Series.CumulativeArrivals[t] = arrivals
		res.Series.CumulativeVolume[t] = volume

		logrus.Debugf("step %d: elapsed=%.2f n=%d V=%.2f freq=%.4f avg=%.4f change=%.4f D=%.4f",
			t, elapsed, arrivals, volume, frequency, averageSize, changeRate, interval)

		if interval < elapsed {
			res.emit(opts, Observation{
				Kind:        ObservationBelowElapsed,
				Step:        t,
				Elapsed:     elapsed,
				Interval:    interval,
				Volume:      volume,
				VolumeRatio: volume / p.Capacity,
			})
		}
		if atReference(elapsed, p.ReferenceInterval, opts.EqualityTolerance) {
			res.emit(opts, Observation{
				Kind:        ObservationAtReference,
				Step:        t,
				Elapsed:     elapsed,
				Volume:      volume,
				VolumeRatio: volume / p.Capacity,
			})
		}
	}
	return res
}

func (r *Result) emit(opts FoldOptions, o Observation) {
	r.Observations = append(r.Observations, o)
	if opts.Observer != nil {
		opts.Observer.Observe(o)
	}
}

func atReference(elapsed, reference, tolerance float64) bool {
	if tolerance <= 0 {
		return elapsed == reference
	}
	return math.Abs(elapsed-reference) <= tolerance
}
