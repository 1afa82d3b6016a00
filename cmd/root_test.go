package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/blocktime-sim/sim"
	"github.com/inference-sim/blocktime-sim/sim/report"
)

// newTestViper parses args against a fresh run flag set.
func newTestViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	bindRunFlags(fs)
	require.NoError(t, fs.Parse(args))
	return newRunViper(fs)
}

func TestResolveParams_NoOverrides_Defaults(t *testing.T) {
	p, err := resolveParams(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultParams(), p)
}

func TestResolveParams_Precedence(t *testing.T) {
	// GIVEN a scenario file setting three fields
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arrival_rate: 3\nalpha: 0.5\ncapacity: 400\n"), 0o644))

	// AND an env var overriding one of them and a flag overriding another
	t.Setenv("BLOCKTIME_ALPHA", "0.75")
	v := newTestViper(t, "--config", path, "--capacity=800")

	// WHEN parameters are resolved
	p, err := resolveParams(v)
	require.NoError(t, err)

	// THEN file < env < flag, and untouched defaults survive
	assert.Equal(t, 3.0, p.ArrivalRate, "from file")
	assert.Equal(t, 0.75, p.Alpha, "env overrides file")
	assert.Equal(t, 800.0, p.Capacity, "flag overrides file")
	assert.Equal(t, sim.DefaultParams().StepSize, p.StepSize, "default preserved")
}

func TestResolveParams_FlagBeatsEnv(t *testing.T) {
	t.Setenv("BLOCKTIME_STEP_SIZE", "0.25")
	p, err := resolveParams(newTestViper(t, "--step-size=2"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.StepSize)
}

func TestResolveParams_FlagDefaultDoesNotOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("time_period: 4\n"), 0o644))

	p, err := resolveParams(newTestViper(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.TimePeriod)
}

func TestResolveParams_BadEnvValue_Error(t *testing.T) {
	t.Setenv("BLOCKTIME_SIZE_MEAN", "ten")
	_, err := resolveParams(newTestViper(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--size-mean")
}

func TestResolveParams_UnknownScenarioKey_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lambda: 3\n"), 0o644))

	_, err := resolveParams(newTestViper(t, "--config", path))
	require.Error(t, err)
}

func TestResolveOptions_SeedFromEnv(t *testing.T) {
	t.Setenv("BLOCKTIME_SEED", "7")
	opts, err := resolveOptions(newTestViper(t, "--quiet", "--plot", "out.png"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), opts.seed)
	assert.True(t, opts.quiet)
	assert.Equal(t, "out.png", opts.plotPath)
	assert.Equal(t, 0.0, opts.equalityTolerance)
	assert.Equal(t, "warn", opts.logLevel)
}

func TestRunSimulation_TextReportToWriter(t *testing.T) {
	// GIVEN the reference scenario with the default seed
	var buf bytes.Buffer

	// WHEN the simulation runs
	require.NoError(t, runSimulation(&buf, newTestViper(t, "--log", "error")))

	// THEN the table has a header and 20 step rows
	out := buf.String()
	assert.Contains(t, out, "Time\tCumulative Frequency")
	assert.Equal(t, 20, strings.Count(out, "Time "))
	assert.Contains(t, out, "Time 10.0: ")
}

func TestRunSimulation_PrintSamples_BeforeReport(t *testing.T) {
	// GIVEN a run with raw draws requested
	var buf bytes.Buffer
	require.NoError(t, runSimulation(&buf, newTestViper(t, "--log", "error", "--print-samples")))

	// THEN counts and sizes lead the output, ahead of the table
	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "Arrival counts: ["))
	assert.True(t, strings.HasPrefix(lines[1], "Sizes: ["))
	assert.Less(t, strings.Index(buf.String(), "Sizes: "), strings.Index(buf.String(), "Time\t"))
}

func TestRunSimulation_DefaultOmitsSamples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSimulation(&buf, newTestViper(t, "--log", "error")))
	assert.NotContains(t, buf.String(), "Arrival counts:")
}

func TestRunSimulation_SameSeed_SameOutput(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, runSimulation(&a, newTestViper(t, "--log", "error", "--seed", "9")))
	require.NoError(t, runSimulation(&b, newTestViper(t, "--log", "error", "--seed", "9")))
	assert.Equal(t, a.String(), b.String())
}

func TestRunSimulation_QuietWithOutputs_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "interval.svg")
	outPath := filepath.Join(dir, "result.yaml")
	var buf bytes.Buffer

	require.NoError(t, runSimulation(&buf, newTestViper(t,
		"--log", "error", "--quiet", "--include-samples", "--plot", plotPath, "--output", outPath)))

	assert.Empty(t, buf.String(), "quiet suppresses the text report")
	assert.FileExists(t, plotPath)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	exp, err := report.ReadYAML(f)
	require.NoError(t, err)
	require.NotNil(t, exp.Seed)
	assert.Equal(t, int64(42), *exp.Seed)
	assert.Len(t, exp.Series.DynamicInterval, 20)
	assert.Len(t, exp.Samples, 20)
}

func TestRunSimulation_InvalidConfig_Error(t *testing.T) {
	var buf bytes.Buffer
	err := runSimulation(&buf, newTestViper(t, "--log", "error", "--step-size=0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	assert.Empty(t, buf.String(), "nothing is reported before validation")
}

func TestRunSimulation_InvalidLogLevel_Error(t *testing.T) {
	err := runSimulation(&bytes.Buffer{}, newTestViper(t, "--log", "loud"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestDefaultsCmd_PrintsLoadableScenario(t *testing.T) {
	// GIVEN the defaults command writing to a buffer
	var buf bytes.Buffer
	defaultsCmd.SetOut(&buf)
	t.Cleanup(func() { defaultsCmd.SetOut(nil) })

	// WHEN run
	defaultsCmd.Run(defaultsCmd, nil)

	// THEN the output parses back to the defaults
	p, err := sim.ParseParams(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultParams(), p)
}
