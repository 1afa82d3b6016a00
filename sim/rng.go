package sim

import (
	"hash/fnv"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical Params MUST produce
// bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemArrivals is the RNG subsystem for per-step arrival counts.
	// Uses the master seed directly.
	SubsystemArrivals = "arrivals"

	// SubsystemSizes is the RNG subsystem for object size samples.
	SubsystemSizes = "sizes"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemArrivals: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := int64(p.key)
	if name != SubsystemArrivals {
		derivedSeed ^= fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === RandomSource ===

// RandomSource supplies the draws the engine needs. Implementations must be
// reproducible when seeded; the engine never seeds them itself.
type RandomSource interface {
	// Poisson returns a non-negative count with the given mean.
	Poisson(mean float64) int
	// Normal returns a real sample with the given mean and standard deviation.
	Normal(mean, stdDev float64) float64
}

// SeededSource draws arrivals and sizes from isolated PartitionedRNG
// subsystems, so changing how many sizes are drawn never shifts the
// arrival sequence.
type SeededSource struct {
	rng *PartitionedRNG
}

// NewSeededSource creates a SeededSource for the given key.
func NewSeededSource(key SimulationKey) *SeededSource {
	return &SeededSource{rng: NewPartitionedRNG(key)}
}

// Key returns the key the source was seeded with.
func (s *SeededSource) Key() SimulationKey {
	return s.rng.Key()
}

// Poisson returns 0 for a non-positive mean.
func (s *SeededSource) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: mean, Src: s.rng.ForSubsystem(SubsystemArrivals)}
	return int(d.Rand())
}

func (s *SeededSource) Normal(mean, stdDev float64) float64 {
	d := distuv.Normal{Mu: mean, Sigma: stdDev, Src: s.rng.ForSubsystem(SubsystemSizes)}
	return d.Rand()
}
