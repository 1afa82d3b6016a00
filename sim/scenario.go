package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadParams reads a YAML scenario file. Keys absent from the file keep
// their DefaultParams value; unrecognized keys (typos) are rejected.
// The result is not validated.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading scenario: %w", err)
	}
	p, err := ParseParams(data)
	if err != nil {
		return Params{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return p, nil
}

// ParseParams decodes scenario YAML on top of DefaultParams with strict
// field checking. An empty document yields the defaults.
func ParseParams(data []byte) (Params, error) {
	p := DefaultParams()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, err
	}
	return p, nil
}

// MarshalParams encodes params as a scenario document accepted by ParseParams.
func MarshalParams(p Params) ([]byte, error) {
	return yaml.Marshal(p)
}
