package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/debug"
)

var (
	dataDir    string
	debugLevel int
	configFile string
	preset     string

	strategy   string
	distance   float64
	power      float64
	integrator string
	ks, kp, kd float64
	deadBand   float64
	tickMs     float64
	maxTicks   int
	timeoutMs  int
	initialErr string
	reverse    bool
	slaveEff   float64
	noise      float64
	seed       int64

	noSave    bool
	showPlot  bool
	plotWidth int
	svgWidth  int

	tuneMetric string
	tuneGrid   []string

	ensembleRuns int
	ensembleSeed int64
	pngOut       string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		debug.Error(err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "drivectl",
		Short:         "closed-loop drivetrain motion controller and simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug.Init(debugLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drivectl", "data directory")
	rootCmd.PersistentFlags().IntVar(&debugLevel, "debug", 0, "debug level 0-4 (info, live, verbose, trace)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one motion command on the simulated drivetrain",
		RunE:  runCommand,
	}
	addMotionFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot position and lateral error after the run")

	compareCmd := &cobra.Command{
		Use:   "compare [strategy...]",
		Short: "run strategies side by side on identical plants",
		RunE:  compareStrategies,
	}
	addMotionFlags(compareCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search gains against a metric",
		RunE:  tuneGains,
	}
	addMotionFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "lateral_rms", "metric to minimise")
	tuneCmd.Flags().StringArrayVar(&tuneGrid, "grid", []string{"kp=0.1:1:4"}, "gain range name=lo:hi:n, repeatable")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run one command with a live terminal view",
		RunE:  runLive,
	}
	addMotionFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [field...]",
		Short: "plot a stored run (position, error, lateral, commands)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of position and lateral error",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a stored run's ticks as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a stored run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [field]",
		Short: "write one plot view of a stored run as SVG to stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id] [field]",
		Short: "render one plot view of a stored run to a PNG file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&pngOut, "out", "o", "", "output file (default <run_id>_<field>.png)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "repeat one command over noisy plants with consecutive seeds",
		RunE:  runEnsemble,
	}
	addMotionFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 16, "number of runs")
	ensembleCmd.Flags().Int64Var(&ensembleSeed, "seed-start", 1, "seed of the first run")

	routineCmd := &cobra.Command{
		Use:   "routine [file]",
		Short: "run a YAML routine of motion commands on one drivetrain",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoutine,
	}
	addMotionFlags(routineCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-12s %s, %.1f in, dead band %.2f rot\n", name, p.Strategy, p.Distance, p.Controller.DeadBand)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, compareCmd, tuneCmd, liveCmd, ensembleCmd, routineCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, exportPNGCmd, presetsCmd)
	return rootCmd
}

func addMotionFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&strategy, "strategy", def.Strategy, "open_loop, straight, straight_p or straight_pd")
	f.Float64Var(&distance, "distance", def.Distance, "distance in wheel-circumference units")
	f.Float64Var(&power, "power", def.Power, "nominal move velocity")
	f.StringVar(&integrator, "integrator", def.Plant.Integrator, "plant integrator")
	f.Float64Var(&ks, "ks", def.Controller.KS, "straight tracking gain")
	f.Float64Var(&kp, "kp", def.Controller.KP, "positional gain")
	f.Float64Var(&kd, "kd", def.Controller.KD, "derivative gain")
	f.Float64Var(&deadBand, "dead-band", def.Controller.DeadBand, "termination half-width, rotations")
	f.Float64Var(&tickMs, "tick", def.Controller.TickIntervalMs, "tick interval, ms")
	f.IntVar(&maxTicks, "max-ticks", def.Controller.MaxTicks, "stall bound, 0 for none")
	f.IntVar(&timeoutMs, "timeout", def.Controller.TimeoutMs, "wall-time bound in ms, 0 for none")
	f.StringVar(&initialErr, "initial-error", def.Controller.InitialError, "derivative seed: zero or first")
	f.BoolVar(&reverse, "reverse", def.Controller.AllowReverse, "accept negative distances")
	f.Float64Var(&slaveEff, "slave-efficiency", def.Plant.SlaveEfficiency, "slave motor efficiency")
	f.Float64Var(&noise, "noise", def.Plant.Noise, "velocity readback noise stddev")
	f.Int64Var(&seed, "seed", def.Plant.Seed, "plant noise seed")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if !cmd.Flags().Changed("debug") && cfg.DebugLevel > debugLevel {
			debug.Init(cfg.DebugLevel)
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("strategy", func() { cfg.Strategy = strategy })
	set("distance", func() { cfg.Distance = distance })
	set("power", func() { cfg.Power = power })
	set("integrator", func() { cfg.Plant.Integrator = integrator })
	set("ks", func() { cfg.Controller.KS = ks })
	set("kp", func() { cfg.Controller.KP = kp })
	set("kd", func() { cfg.Controller.KD = kd })
	set("dead-band", func() { cfg.Controller.DeadBand = deadBand })
	set("tick", func() { cfg.Controller.TickIntervalMs = tickMs })
	set("max-ticks", func() { cfg.Controller.MaxTicks = maxTicks })
	set("timeout", func() { cfg.Controller.TimeoutMs = timeoutMs })
	set("initial-error", func() { cfg.Controller.InitialError = initialErr })
	set("reverse", func() { cfg.Controller.AllowReverse = reverse })
	set("slave-efficiency", func() { cfg.Plant.SlaveEfficiency = slaveEff })
	set("noise", func() { cfg.Plant.Noise = noise })
	set("seed", func() { cfg.Plant.Seed = seed })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Section("config")
	debug.Value("strategy", cfg.Strategy)
	debug.Value("distance", cfg.Distance)
	debug.Value("gains", fmt.Sprintf("ks=%g kp=%g kd=%g", cfg.Controller.KS, cfg.Controller.KP, cfg.Controller.KD))
	debug.Value("dead_band", cfg.Controller.DeadBand)
	return cfg, nil
}
