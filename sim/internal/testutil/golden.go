package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_scenarios.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scripted scenario with its expected output, computed
// by a full recompute from step 0 at every step.
type GoldenTestCase struct {
	Name         string              `json:"name"`
	Params       GoldenParams        `json:"params"`
	Counts       []int               `json:"counts"`
	Sizes        []float64           `json:"sizes"`
	Series       GoldenSeries        `json:"series"`
	Observations []GoldenObservation `json:"observations"`
}

// GoldenParams mirrors the scenario keys of sim.Params.
type GoldenParams struct {
	ArrivalRate       float64 `json:"arrival_rate"`
	TimePeriod        float64 `json:"time_period"`
	SizeMean          float64 `json:"size_mean"`
	SizeStdDev        float64 `json:"size_std"`
	Alpha             float64 `json:"alpha"`
	Capacity          float64 `json:"capacity"`
	ChangeRate        float64 `json:"change_rate"`
	IdealCount        float64 `json:"ideal_count"`
	ReferenceInterval float64 `json:"reference_interval"`
	StepSize          float64 `json:"step_size"`
}

// GoldenSeries holds the expected cumulative series.
type GoldenSeries struct {
	Elapsed            []float64 `json:"elapsed"`
	Frequency          []float64 `json:"frequency"`
	AverageSize        []float64 `json:"average_size"`
	SizeChangeRate     []float64 `json:"size_change_rate"`
	DynamicInterval    []float64 `json:"dynamic_interval"`
	CumulativeArrivals []int     `json:"cumulative_arrivals"`
	CumulativeVolume   []float64 `json:"cumulative_volume"`
}

// GoldenObservation is an expected observation event.
type GoldenObservation struct {
	Kind        string  `json:"kind"`
	Step        int     `json:"step"`
	Elapsed     float64 `json:"elapsed"`
	Interval    float64 `json:"interval"`
	Volume      float64 `json:"volume"`
	VolumeRatio float64 `json:"volume_ratio"`
}

// Source returns a fresh scripted source replaying the case's draws.
func (c GoldenTestCase) Source() *ScriptedSource {
	return &ScriptedSource{Counts: c.Counts, Sizes: c.Sizes}
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == got || (math.IsNaN(want) && math.IsNaN(got)) {
		return
	}
	if math.IsNaN(want) || math.IsNaN(got) || math.IsInf(want, 0) || math.IsInf(got, 0) {
		t.Errorf("%s: got %v, want %v", name, got, want)
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloat64SliceEqual compares two float64 slices element-wise.
func AssertFloat64SliceEqual(t *testing.T, name string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		AssertFloat64Equal(t, fmt.Sprintf("%s[%d]", name, i), want[i], got[i], relTol)
	}
}
