// Package testutil provides shared test infrastructure for blocktime-sim.
// It holds the scripted random source, the golden dataset loader and float
// assertion helpers used across sim/ and sim/report/ test packages.
package testutil

// ScriptedSource replays fixed draws instead of randomness. Counts and Sizes
// are cycled independently; an empty slice yields zero draws.
// It satisfies sim.RandomSource.
type ScriptedSource struct {
	Counts []int
	Sizes  []float64

	PoissonCalls int
	NormalCalls  int
	PoissonMeans []float64
}

// Constant returns a source that yields count arrivals of the given size at
// every step.
func Constant(count int, size float64) *ScriptedSource {
	return &ScriptedSource{Counts: []int{count}, Sizes: []float64{size}}
}

func (s *ScriptedSource) Poisson(mean float64) int {
	s.PoissonMeans = append(s.PoissonMeans, mean)
	defer func() { s.PoissonCalls++ }()
	if len(s.Counts) == 0 {
		return 0
	}
	return s.Counts[s.PoissonCalls%len(s.Counts)]
}

func (s *ScriptedSource) Normal(_, _ float64) float64 {
	defer func() { s.NormalCalls++ }()
	if len(s.Sizes) == 0 {
		return 0
	}
	return s.Sizes[s.NormalCalls%len(s.Sizes)]
}
