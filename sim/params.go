package sim

import (
	"errors"
	"fmt"
	"math"
)

// MaxSteps is the largest accepted floor(TimePeriod / StepSize).
const MaxSteps = 10_000_000

// ErrInvalidConfig is wrapped by every parameter validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a single invalid parameter by its YAML key.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Params is the immutable configuration of one simulation run.
// Alpha, ChangeRate, IdealCount and ReferenceInterval only enter the
// dynamic-interval formula; ReferenceInterval also drives the
// elapsed-at-reference observation.
type Params struct {
	ArrivalRate       float64 `yaml:"arrival_rate"`       // λ, objects per second
	TimePeriod        float64 `yaml:"time_period"`        // total observed time (seconds)
	SizeMean          float64 `yaml:"size_mean"`          // mean object size
	SizeStdDev        float64 `yaml:"size_std"`           // object size standard deviation
	Alpha             float64 `yaml:"alpha"`              // ideal space ratio α
	Capacity          float64 `yaml:"capacity"`           // reference capacity m
	ChangeRate        float64 `yaml:"change_rate"`        // ideal size change rate r
	IdealCount        float64 `yaml:"ideal_count"`        // ideal objects per interval i
	ReferenceInterval float64 `yaml:"reference_interval"` // ideal interval d (seconds)
	StepSize          float64 `yaml:"step_size"`          // observation window Δt (seconds)
}

// DefaultParams returns the reference scenario: 20 steps of 0.5s.
func DefaultParams() Params {
	return Params{
		ArrivalRate:       5,
		TimePeriod:        10,
		SizeMean:          10,
		SizeStdDev:        2,
		Alpha:             0.25,
		Capacity:          1000,
		ChangeRate:        0.1,
		IdealCount:        15,
		ReferenceInterval: 6,
		StepSize:          0.5,
	}
}

// NumSteps returns floor(TimePeriod / StepSize).
// Only meaningful for validated params.
func (p Params) NumSteps() int {
	return int(math.Floor(p.TimePeriod / p.StepSize))
}

// Elapsed returns the elapsed time at the end of step t.
func (p Params) Elapsed(t int) float64 {
	return float64(t+1) * p.StepSize
}

// Validate checks the parameter invariants. The returned error wraps
// ErrInvalidConfig.
func (p Params) Validate() error {
	fields := []struct {
		name string
		val  float64
	}{
		{"arrival_rate", p.ArrivalRate},
		{"time_period", p.TimePeriod},
		{"size_mean", p.SizeMean},
		{"size_std", p.SizeStdDev},
		{"alpha", p.Alpha},
		{"capacity", p.Capacity},
		{"change_rate", p.ChangeRate},
		{"ideal_count", p.IdealCount},
		{"reference_interval", p.ReferenceInterval},
		{"step_size", p.StepSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("must be a finite number, got %v", f.val)}
		}
	}
	if p.StepSize <= 0 {
		return &ConfigError{Field: "step_size", Reason: fmt.Sprintf("must be positive, got %v", p.StepSize)}
	}
	if p.TimePeriod <= 0 {
		return &ConfigError{Field: "time_period", Reason: fmt.Sprintf("must be positive, got %v", p.TimePeriod)}
	}
	if p.ArrivalRate < 0 {
		return &ConfigError{Field: "arrival_rate", Reason: fmt.Sprintf("must be non-negative, got %v", p.ArrivalRate)}
	}
	if p.SizeStdDev < 0 {
		return &ConfigError{Field: "size_std", Reason: fmt.Sprintf("must be non-negative, got %v", p.SizeStdDev)}
	}
	if steps := math.Floor(p.TimePeriod / p.StepSize); steps > MaxSteps {
		return &ConfigError{
			Field:  "time_period",
			Reason: fmt.Sprintf("covers %g steps of %v, more than the maximum of %d",
				steps, p.StepSize, MaxSteps),
		}
	}
	if p.NumSteps() < 1 {
		return &ConfigError{
			Field:  "time_period",
			Reason: fmt.Sprintf("must cover at least one step of %v, got %v", p.StepSize, p.TimePeriod),
		}
	}
	return nil
}
