// Package sim provides the cumulative statistics engine for blocktime-sim.
//
// # Reading Guide
//
// Start with these files:
//   - params.go: Params, its defaults and validation (ErrInvalidConfig)
//   - engine.go: Generate, Fold and Run; the causal fold and DynamicInterval
//   - rng.go: RandomSource and the seeded, partitioned implementation
//
// # Model
//
// Time is split into N = floor(time_period/step_size) windows. Each window
// receives Poisson(λ·Δt) objects whose sizes are Normal(size_mean, size_std).
// The fold carries running totals forward so that every series entry t
// depends only on windows 0..t. From frequency, average size and size
// change rate it derives the dynamic interval
//
//	D = ((α·m·d)/i + r·i) / (frequency + average size + change rate)
//
// and emits an Observation whenever D falls below the elapsed time, or the
// elapsed time equals d exactly.
//
// Reporting lives in sim/report; the engine never performs I/O beyond
// logging.
package sim
