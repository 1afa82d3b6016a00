package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sim "github.com/inference-sim/blocktime-sim/sim"
	"github.com/inference-sim/blocktime-sim/sim/report"
)

// envPrefix namespaces environment overrides, e.g. BLOCKTIME_ARRIVAL_RATE.
const envPrefix = "BLOCKTIME"

// paramFlag maps a CLI flag to its Params field.
type paramFlag struct {
	name  string
	usage string
	field func(p *sim.Params) *float64
}

var paramFlags = []paramFlag{
	{"arrival-rate", "Arrival rate λ (objects per second)", func(p *sim.Params) *float64 { return &p.ArrivalRate }},
	{"time-period", "Total observed time (seconds)", func(p *sim.Params) *float64 { return &p.TimePeriod }},
	{"size-mean", "Mean object size", func(p *sim.Params) *float64 { return &p.SizeMean }},
	{"size-std", "Object size standard deviation", func(p *sim.Params) *float64 { return &p.SizeStdDev }},
	{"alpha", "Ideal space ratio α", func(p *sim.Params) *float64 { return &p.Alpha }},
	{"capacity", "Reference capacity m", func(p *sim.Params) *float64 { return &p.Capacity }},
	{"change-rate", "Ideal size change rate r", func(p *sim.Params) *float64 { return &p.ChangeRate }},
	{"ideal-count", "Ideal number of objects per interval i", func(p *sim.Params) *float64 { return &p.IdealCount }},
	{"reference-interval", "Ideal interval d (seconds)", func(p *sim.Params) *float64 { return &p.ReferenceInterval }},
	{"step-size", "Observation window Δt (seconds)", func(p *sim.Params) *float64 { return &p.StepSize }},
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "blocktime-sim",
	Short: "Monte Carlo simulator for cumulative arrival statistics and the dynamic interval",
}

// runViper layers environment variables over the run flags.
var runViper *viper.Viper

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cumulative statistics simulation",
	Long: "Generate Poisson arrivals with Normal sizes, fold cumulative statistics step by step and " +
		"report the dynamic interval. Precedence: defaults < --config file < BLOCKTIME_* env < flags.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSimulation(cmd.OutOrStdout(), runViper); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// defaultsCmd prints the reference scenario as YAML
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the reference scenario as YAML (usable with run --config)",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := sim.MarshalParams(sim.DefaultParams())
		if err != nil {
			logrus.Fatalf("YAML marshal failed: %v", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runOptions are the non-parameter settings of a run.
type runOptions struct {
	seed              int64
	logLevel          string
	plotPath          string
	outputPath        string
	quiet             bool
	printSamples      bool
	includeSamples    bool
	equalityTolerance float64
}

func runSimulation(w io.Writer, v *viper.Viper) error {
	opts, err := resolveOptions(v)
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", opts.logLevel)
	}
	logrus.SetLevel(level)

	params, err := resolveParams(v)
	if err != nil {
		return err
	}
	logrus.Infof("Starting simulation with seed=%d, params=%+v", opts.seed, params)
	startTime := time.Now()

	sink := buildSink(w, opts)
	res, err := sim.Run(params, sim.NewSeededSource(sim.NewSimulationKey(opts.seed)), sim.FoldOptions{
		Observer:          sink,
		EqualityTolerance: opts.equalityTolerance,
	})
	if err != nil {
		return err
	}
	if err := sink.Render(res); err != nil {
		return err
	}

	summary := report.Summarize(res)
	logrus.Infof("Simulation complete in %v: %d steps, %d arrivals, final D=%.4f, %d below-elapsed, %d at-reference",
		time.Since(startTime), summary.Steps, summary.TotalArrivals, summary.FinalInterval,
		summary.BelowElapsedCount, summary.AtReferenceCount)
	return nil
}

func buildSink(w io.Writer, opts runOptions) report.Sink {
	var sinks []report.Sink
	if !opts.quiet {
		text := report.NewTextSink(w)
		text.ShowSamples = opts.printSamples
		sinks = append(sinks, text)
	}
	if opts.plotPath != "" {
		sinks = append(sinks, report.NewPlotSink(opts.plotPath))
	}
	if opts.outputPath != "" {
		seed := opts.seed
		sinks = append(sinks, &report.YAMLFileSink{
			Path:    opts.outputPath,
			Options: report.ExportOptions{Seed: &seed, IncludeSamples: opts.includeSamples},
		})
	}
	if len(sinks) == 0 {
		return report.Discard
	}
	return report.Multi(sinks...)
}

// resolveParams starts from the defaults, applies the --config scenario file
// and then every parameter set by environment or an explicitly changed flag.
// Flag defaults never override the scenario file.
func resolveParams(v *viper.Viper) (sim.Params, error) {
	params := sim.DefaultParams()
	if path := v.GetString("config"); path != "" {
		loaded, err := sim.LoadParams(path)
		if err != nil {
			return sim.Params{}, err
		}
		params = loaded
	}
	for _, f := range paramFlags {
		if !v.IsSet(f.name) {
			continue
		}
		val, err := cast.ToFloat64E(v.Get(f.name))
		if err != nil {
			return sim.Params{}, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.field(&params) = val
	}
	return params, nil
}

func resolveOptions(v *viper.Viper) (runOptions, error) {
	seed, err := cast.ToInt64E(v.Get("seed"))
	if err != nil {
		return runOptions{}, fmt.Errorf("--seed: %w", err)
	}
	tol, err := cast.ToFloat64E(v.Get("equality-tolerance"))
	if err != nil {
		return runOptions{}, fmt.Errorf("--equality-tolerance: %w", err)
	}
	return runOptions{
		seed:              seed,
		logLevel:          v.GetString("log"),
		plotPath:          v.GetString("plot"),
		outputPath:        v.GetString("output"),
		quiet:             v.GetBool("quiet"),
		printSamples:      v.GetBool("print-samples"),
		includeSamples:    v.GetBool("include-samples"),
		equalityTolerance: tol,
	}, nil
}

// bindRunFlags registers the run flags on fs.
func bindRunFlags(fs *pflag.FlagSet) {
	fs.Int64("seed", 42, "Seed for arrival and size generation")
	fs.String("log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.String("config", "", "Path to a YAML scenario file (see: blocktime-sim defaults)")
	fs.String("plot", "", "Write the dynamic interval plot to this path (.png, .svg, .pdf)")
	fs.String("output", "", "Write the full result as YAML to this path")
	fs.Bool("quiet", false, "Suppress the text report")
	fs.Bool("print-samples", false, "Print raw arrival counts and sizes before the text report")
	fs.Bool("include-samples", false, "Include raw per-step draws in --output")
	fs.Float64("equality-tolerance", 0, "Absolute tolerance for the elapsed == reference-interval check (0 = exact)")

	defaults := sim.DefaultParams()
	for _, f := range paramFlags {
		fs.Float64(f.name, *f.field(&defaults), f.usage)
	}
}

// newRunViper binds fs and BLOCKTIME_* environment variables.
func newRunViper(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		logrus.Fatalf("Failed to bind flags: %v", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// init sets up CLI flags and subcommands
func init() {
	bindRunFlags(runCmd.Flags())
	runViper = newRunViper(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
