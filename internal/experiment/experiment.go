package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/sim"
)

type Config struct {
	Strategy   control.Strategy
	Distance   float64
	Power      float64
	Integrator string
	Control    control.Config
	Plant      sim.Config
}

// FromConfig resolves a file-level configuration into an experiment.
func FromConfig(c *config.Config) (Config, error) {
	strategy, err := c.GetStrategy()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Strategy:   strategy,
		Distance:   c.Distance,
		Power:      c.Power,
		Integrator: c.Plant.Integrator,
		Control:    c.ControlConfig(),
		Plant:      c.SimConfig(),
	}, nil
}

// Experiment is one motion command against a freshly built simulated
// drivetrain, with the plant acting as the controller's scheduler.
type Experiment struct {
	cfg        Config
	plant      *sim.Plant
	controller *control.Controller
}

func New(cfg Config) (*Experiment, error) {
	return NewWithRegistry(cfg, NewRegistry())
}

func NewWithRegistry(cfg Config, reg *Registry) (*Experiment, error) {
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	plant, err := sim.NewPlant(cfg.Plant, integ, cfg.Control.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("build plant: %w", err)
	}

	ctrl := control.New(cfg.Control, plant)
	for _, m := range reg.DefaultMetrics() {
		ctrl.AddMetric(m)
	}

	return &Experiment{cfg: cfg, plant: plant, controller: ctrl}, nil
}

func (e *Experiment) Config() Config { return e.cfg }

// Controller is exposed for attaching observers before Run.
func (e *Experiment) Controller() *control.Controller { return e.controller }

func (e *Experiment) Plant() *sim.Plant { return e.plant }

func (e *Experiment) Run(ctx context.Context) (*control.Result, error) {
	return e.RunCommand(ctx, control.Command{
		Strategy: e.cfg.Strategy,
		Distance: e.cfg.Distance,
		Power:    e.cfg.Power,
	})
}

// RunCommand runs cmd on the experiment's plant from wherever the previous
// command left it.
func (e *Experiment) RunCommand(ctx context.Context, cmd control.Command) (*control.Result, error) {
	return e.controller.Run(ctx, cmd, e.plant.Pair())
}

type Outcome struct {
	Strategy control.Strategy
	Seed     int64
	Result   *control.Result
	Err      error
}

// Compare runs each strategy on its own identical plant concurrently.
// Outcomes keep the order of strategies; a failed run does not stop the
// others.
func Compare(ctx context.Context, cfg Config, strategies []control.Strategy) []Outcome {
	outcomes := make([]Outcome, len(strategies))

	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(idx int, s control.Strategy) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Strategy = s
			outcomes[idx] = runOne(ctx, cfgCopy)
		}(i, s)
	}

	wg.Wait()
	return outcomes
}

// Ensemble repeats one configuration over consecutive plant seeds, which
// only matters when the plant is noisy.
func Ensemble(ctx context.Context, cfg Config, runs int, seedStart int64) []Outcome {
	outcomes := make([]Outcome, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Plant.Seed = seedStart + int64(idx)
			outcomes[idx] = runOne(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()
	return outcomes
}

func runOne(ctx context.Context, cfg Config) Outcome {
	out := Outcome{Strategy: cfg.Strategy, Seed: cfg.Plant.Seed}
	exp, err := New(cfg)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result, out.Err = exp.Run(ctx)
	return out
}
