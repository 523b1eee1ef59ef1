package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/drivectl/internal/automation"
	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/debug"
	"github.com/san-kum/drivectl/internal/drive"
	"github.com/san-kum/drivectl/internal/experiment"
	"github.com/san-kum/drivectl/internal/optim"
	"github.com/san-kum/drivectl/internal/storage"
	"github.com/san-kum/drivectl/internal/units"
	"github.com/san-kum/drivectl/internal/viz"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}
	exp, err := experiment.New(expCfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	debug.Info("running %s over %.2f", expCfg.Strategy, expCfg.Distance)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	debug.Info("finished in %v (%.2fs simulated)", time.Since(start), exp.Plant().Time())

	fmt.Println(viz.Summary(result, runErr))

	if !noSave {
		runID, err := saveRun(cfg, result, runErr)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if showPlot {
		for _, field := range []string{"position", "lateral"} {
			graph, err := viz.PlotTrace(result.Trace, field, 80, 10)
			if err != nil {
				break
			}
			fmt.Println(graph)
			fmt.Println()
		}
	}

	return runErr
}

func saveRun(cfg *config.Config, result *control.Result, runErr error) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	meta := storage.RunMetadata{
		Strategy:   result.Strategy.String(),
		Seed:       cfg.Plant.Seed,
		Integrator: cfg.Plant.Integrator,
		Distance:   cfg.Distance,
		Power:      cfg.Power,
		KS:         cfg.Controller.KS,
		KP:         cfg.Controller.KP,
		KD:         cfg.Controller.KD,
		DeadBand:   cfg.Controller.DeadBand,
		TickMs:     cfg.Controller.TickIntervalMs,
		Outcome:    outcome(runErr),
	}
	return st.Save(meta, result)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, drive.ErrStalled):
		return "stalled"
	case errors.Is(err, drive.ErrTimeout):
		return "timeout"
	case errors.Is(err, drive.ErrCanceled):
		return "canceled"
	}
	return "error"
}

func compareStrategies(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	strategies := control.Strategies
	if len(args) > 0 {
		strategies = make([]control.Strategy, 0, len(args))
		for _, name := range args {
			s, err := control.ParseStrategy(name)
			if err != nil {
				return err
			}
			strategies = append(strategies, s)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing %d strategies over %.2f (dead band %.2f rot)\n\n", len(strategies), cfg.Distance, cfg.Controller.DeadBand)
	outcomes := experiment.Compare(ctx, expCfg, strategies)

	rows := make([]viz.CompareRow, len(outcomes))
	for i, out := range outcomes {
		rows[i] = viz.CompareRow{Strategy: out.Strategy.String(), Result: out.Result, Err: out.Err}
		if out.Err != nil {
			debug.Info("%s: %v", out.Strategy, out.Err)
		}
	}
	fmt.Println(viz.CompareTable(rows))
	return nil
}

// parseGrid reads "name=lo:hi:n".
func parseGrid(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad grid %q, want name=lo:hi:n", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad range %q, want lo:hi:n", rng)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	if n < 1 {
		return "", nil, fmt.Errorf("grid %s needs at least one point", name)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}
	if base.Control.MaxTicks == 0 {
		// tuning runs are always bounded
		base.Control.MaxTicks = 20000
	}

	names := make([]string, 0, len(tuneGrid))
	ranges := make([][]float64, 0, len(tuneGrid))
	for _, arg := range tuneGrid {
		name, vals, err := parseGrid(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tuning %v for %s on %s\n", names, tuneMetric, base.Strategy)
	res, err := gs.Search(ctx, func(params map[string]float64) (*experiment.Experiment, error) {
		c := base
		gains, err := optim.ApplyGains(c.Control.Gains, params)
		if err != nil {
			return nil, err
		}
		c.Control.Gains = gains
		return experiment.New(c)
	}, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points, skipped %d\n", res.Evaluated, res.Skipped)
	fmt.Printf("best %s: %.6f\n", tuneMetric, res.Value)
	for _, name := range names {
		fmt.Printf("  %s = %.4f\n", name, res.Params[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}
	exp, err := experiment.New(expCfg)
	if err != nil {
		return err
	}
	exp.Plant().SetPace(expCfg.Control.TickInterval)

	// log lines on the terminal would tear the live view
	if debug.Level() > debug.LevelOff {
		closeLog, err := redirectDebugLog(filepath.Join(dataDir, "live.log"))
		if err != nil {
			return err
		}
		defer closeLog()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	goal := units.ToRotations(expCfg.Distance, expCfg.Control.WheelCircumference)
	p := tea.NewProgram(viz.NewLiveModel(expCfg.Strategy, goal, cancel))
	// ~30 frames per second of simulated time
	every := int(time.Second / 30 / expCfg.Control.TickInterval)
	exp.Controller().AddObserver(viz.NewLiveObserver(p, every))

	go func() {
		result, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: result, Err: err})
	}()

	_, err = p.Run()
	return err
}

// redirectDebugLog appends debug output to path until the returned func
// is called, which restores stderr.
func redirectDebugLog(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	debug.SetOutput(f)
	return func() error {
		debug.SetOutput(os.Stderr)
		return f.Close()
	}, nil
}

func runRoutine(cmd *cobra.Command, args []string) error {
	routine, err := automation.LoadRoutine(args[0])
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("routine %s: %d steps\n", routine.Name, len(routine.Steps))
	results, runErr := automation.Run(ctx, routine, base)
	travelled := automation.Travelled(results)
	for i, r := range results {
		fmt.Printf("  %d. %-12s goal %.4f rot, travelled %.4f rot, lateral %+.4f, %d ticks\n",
			i+1, r.Result.Strategy, r.Result.Goal, travelled[i], r.Result.Final.LateralError(), r.Result.Ticks)
	}
	return runErr
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if ensembleRuns < 1 {
		return fmt.Errorf("--runs must be >= 1, got %d", ensembleRuns)
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%s: %d runs from seed %d, noise %.3f\n\n", cfg.Strategy, ensembleRuns, ensembleSeed, cfg.Plant.Noise)
	outcomes := experiment.Ensemble(ctx, expCfg, ensembleRuns, ensembleSeed)

	names := append([]string{"ticks"}, experiment.NewRegistry().ListMetrics()...)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	failed := experiment.Summarize(outcomes, "ticks").Failed
	for _, name := range names {
		s := experiment.Summarize(outcomes, name)
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\t%.5f\n", s.Metric, s.Mean, s.StdDev, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	failures := experiment.Failures(outcomes)
	if failures == nil {
		return nil
	}
	fmt.Printf("\n%d of %d runs failed\n", len(multierr.Errors(failures)), len(outcomes))
	debug.Info("ensemble failures: %v", failures)
	if failed == len(outcomes) {
		return failures
	}
	return nil
}
