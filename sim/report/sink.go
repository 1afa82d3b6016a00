// Package report renders simulation results. Sinks receive observations
// inline while the fold runs and the completed result afterwards; swapping
// sinks never changes the result.
package report

import (
	"errors"

	sim "github.com/inference-sim/blocktime-sim/sim"
)

// Sink consumes the observations and the final result of one run.
type Sink interface {
	sim.Observer
	Render(res *sim.Result) error
}

// Discard is a silent Sink.
var Discard Sink = discard{}

type discard struct{}

func (discard) Observe(sim.Observation) {}
func (discard) Render(*sim.Result) error { return nil }

// Multi fans out to every sink in order. Render keeps going after a
// failure and returns all errors joined.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Observe(o sim.Observation) {
	for _, s := range m {
		s.Observe(o)
	}
}

func (m multi) ObserveSamples(samples []sim.StepSample) {
	for _, s := range m {
		if so, ok := s.(sim.SampleObserver); ok {
			so.ObserveSamples(samples)
		}
	}
}

func (m multi) Render(res *sim.Result) error {
	var errs []error
	for _, s := range m {
		if err := s.Render(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
