package report

import (
	"math"

	sim "github.com/inference-sim/blocktime-sim/sim"
)

// Summary aggregates a Result for export and logging.
type Summary struct {
	Steps               int     `yaml:"steps"`
	TotalArrivals       int     `yaml:"total_arrivals"`
	TotalVolume         float64 `yaml:"total_volume"`
	FinalFrequency      float64 `yaml:"final_frequency"`
	FinalAverageSize    float64 `yaml:"final_average_size"`
	FinalSizeChangeRate float64 `yaml:"final_size_change_rate"`
	FinalInterval       float64 `yaml:"final_interval"`
	MinInterval         float64 `yaml:"min_interval"` // over finite values; 0 if none
	MaxInterval         float64 `yaml:"max_interval"` // over finite values; 0 if none
	NonFiniteIntervals  int     `yaml:"non_finite_intervals"`
	FirstBelowStep      int     `yaml:"first_below_step"` // -1 if D never drops below elapsed
	FirstBelowElapsed   float64 `yaml:"first_below_elapsed"`
	BelowElapsedCount   int     `yaml:"below_elapsed_count"`
	AtReferenceCount    int     `yaml:"at_reference_count"`
}

// Summarize computes aggregate statistics from a Result.
// Safe for nil or empty results (returns zero-value fields).
func Summarize(res *sim.Result) *Summary {
	summary := &Summary{FirstBelowStep: -1}
	if res == nil {
		return summary
	}

	s := res.Series
	summary.Steps = s.Len()
	if summary.Steps > 0 {
		last := summary.Steps - 1
		summary.TotalArrivals = s.CumulativeArrivals[last]
		summary.TotalVolume = s.CumulativeVolume[last]
		summary.FinalFrequency = s.Frequency[last]
		summary.FinalAverageSize = s.AverageSize[last]
		summary.FinalSizeChangeRate = s.SizeChangeRate[last]
		summary.FinalInterval = s.DynamicInterval[last]
	}

	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, d := range s.DynamicInterval {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			summary.NonFiniteIntervals++
			continue
		}
		minD = math.Min(minD, d)
		maxD = math.Max(maxD, d)
	}
	if summary.NonFiniteIntervals < summary.Steps {
		summary.MinInterval, summary.MaxInterval = minD, maxD
	}

	for _, o := range res.Observations {
		switch o.Kind {
		case sim.ObservationBelowElapsed:
			if summary.BelowElapsedCount == 0 {
				summary.FirstBelowStep = o.Step
				summary.FirstBelowElapsed = o.Elapsed
			}
			summary.BelowElapsedCount++
		case sim.ObservationAtReference:
			summary.AtReferenceCount++
		}
	}
	return summary
}
