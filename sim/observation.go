package sim

// ObservationKind names the threshold condition that produced an Observation.
type ObservationKind string

const (
	// ObservationBelowElapsed fires when the dynamic interval drops below
	// the elapsed time.
	ObservationBelowElapsed ObservationKind = "interval-below-elapsed"
	// ObservationAtReference fires when the elapsed time equals the
	// reference interval d.
	ObservationAtReference ObservationKind = "elapsed-at-reference"
)

// Observation is a side-channel record emitted during the fold.
// Interval is only populated for ObservationBelowElapsed.
type Observation struct {
	Kind        ObservationKind `yaml:"kind"`
	Step        int             `yaml:"step"`
	Elapsed     float64         `yaml:"elapsed"`
	Interval    float64         `yaml:"interval"`
	Volume      float64         `yaml:"volume"`       // cumulative volume V
	VolumeRatio float64         `yaml:"volume_ratio"` // V / m
}

// Observer is notified of each Observation as the fold produces it.
type Observer interface {
	Observe(o Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(o Observation)

func (f ObserverFunc) Observe(o Observation) { f(o) }

// SampleObserver is an optional Observer extension. Run hands it the raw
// draws after generation and before the first Observation.
type SampleObserver interface {
	ObserveSamples(samples []StepSample)
}
