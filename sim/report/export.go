package report

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/blocktime-sim/sim"
)

// Export is the YAML document written by WriteYAML.
type Export struct {
	Seed         *int64            `yaml:"seed,omitempty"`
	Params       sim.Params        `yaml:"params"`
	Summary      *Summary          `yaml:"summary"`
	Series       sim.Series        `yaml:"series"`
	Observations []sim.Observation `yaml:"observations"`
	Samples      []sim.StepSample  `yaml:"samples,omitempty"`
}

// ExportOptions controls what WriteYAML includes.
type ExportOptions struct {
	Seed           *int64 // recorded when the run used a SeededSource
	IncludeSamples bool   // include the raw per-step draws
}

// NewExport assembles the export document for res.
func NewExport(res *sim.Result, opts ExportOptions) Export {
	e := Export{
		Seed:         opts.Seed,
		Params:       res.Params,
		Summary:      Summarize(res),
		Series:       res.Series,
		Observations: res.Observations,
	}
	if opts.IncludeSamples {
		e.Samples = res.Samples
	}
	return e
}

// WriteYAML encodes res to w. Non-finite values encode as .inf, -.inf and .nan.
func WriteYAML(w io.Writer, res *sim.Result, opts ExportOptions) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewExport(res, opts)); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return enc.Close()
}

// YAMLFileSink writes the export document to a file on Render.
type YAMLFileSink struct {
	Path    string
	Options ExportOptions
}

func (s *YAMLFileSink) Observe(sim.Observation) {}

func (s *YAMLFileSink) Render(res *sim.Result) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating export %s: %w", s.Path, err)
	}
	if err := WriteYAML(f, res, s.Options); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export %s: %w", s.Path, err)
	}
	logrus.Infof("Result written to %s", s.Path)
	return nil
}

// ReadYAML decodes a document written by WriteYAML.
func ReadYAML(r io.Reader) (*Export, error) {
	var e Export
	if err := yaml.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &e, nil
}
