package control

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/drivectl/internal/debug"
	"github.com/san-kum/drivectl/internal/drive"
	"github.com/san-kum/drivectl/internal/units"
)

type Controller struct {
	cfg       Config
	scheduler Scheduler
	metrics   []Metric
	observers []Observer
}

// New builds a controller. A nil scheduler ticks on wall time at
// cfg.TickInterval.
func New(cfg Config, scheduler Scheduler) *Controller {
	if scheduler == nil {
		scheduler = NewIntervalScheduler(cfg.TickInterval)
	}
	return &Controller{
		cfg:       cfg,
		scheduler: scheduler,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (c *Controller) AddMetric(m Metric)     { c.metrics = append(c.metrics, m) }
func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

func (c *Controller) Config() Config { return c.cfg }

// Run executes one motion command and blocks until the master actuator is
// inside the dead band. The partial result is returned alongside any error.
func (c *Controller) Run(ctx context.Context, cmd Command, pair drive.Pair) (*Result, error) {
	if err := c.validate(cmd, pair); err != nil {
		return nil, err
	}

	stages, err := cmd.Strategy.Stages(c.cfg.InitialError)
	if err != nil {
		return nil, drive.InvalidParameter("%v", err)
	}

	parent := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	goal := units.ToRotations(cmd.Distance, c.cfg.WheelCircumference)

	result := &Result{
		Strategy: cmd.Strategy,
		Goal:     goal,
		Trace:    make([]TickRecord, 0),
		Metrics:  make(map[string]float64),
	}
	for _, m := range c.metrics {
		m.Reset()
	}

	debug.Verbose("%s: goal %.4f rot (%.2f in), power %.2f, %d stages", cmd.Strategy, goal, cmd.Distance, cmd.Power, len(stages))

	pair.Master.MoveRelative(goal, cmd.Power)
	pair.Slave.MoveRelative(goal, cmd.Power)

	var st State
	for tick := 0; ; tick++ {
		obs := Observation{
			Tick:   tick,
			Goal:   goal,
			Master: drive.Read(pair.Master),
			Slave:  drive.Read(pair.Slave),
		}
		result.Final = obs
		result.Ticks = tick

		if c.cfg.InDeadBand(obs.Master.Position, goal) {
			break
		}
		if c.cfg.MaxTicks > 0 && tick >= c.cfg.MaxTicks {
			return c.finish(result), &drive.MotionError{Tick: tick, Goal: goal, Master: obs.Master, Wrapped: drive.ErrStalled}
		}

		var cmds Commands
		for _, s := range stages {
			s.Apply(obs, c.cfg.Gains, &st, &cmds)
		}
		for _, r := range drive.Roles {
			if v, ok := cmds.Get(r); ok {
				pair.Actuator(r).SetVelocityOverride(v)
			}
		}

		rec := TickRecord{
			Observation:   obs,
			PositionError: obs.PositionError(),
			LateralError:  obs.LateralError(),
			Commands:      cmds,
			PreviousError: st.PreviousError,
		}
		c.record(result, rec)

		if err := c.scheduler.Wait(ctx); err != nil {
			result.Ticks = tick + 1
			return c.finish(result), &drive.MotionError{Tick: tick + 1, Goal: goal, Master: obs.Master, Wrapped: waitError(parent, err)}
		}
	}

	debug.Verbose("%s: done after %d ticks, master %.4f slave %.4f", cmd.Strategy, result.Ticks, result.Final.Master.Position, result.Final.Slave.Position)
	return c.finish(result), nil
}

func (c *Controller) record(result *Result, rec TickRecord) {
	result.Trace = append(result.Trace, rec)
	for _, m := range c.metrics {
		m.Observe(rec)
	}
	for _, o := range c.observers {
		o.OnTick(rec)
	}
	if debug.IsEnabled(debug.LevelTrace) {
		m, okM := rec.Commands.Get(drive.Master)
		s, okS := rec.Commands.Get(drive.Slave)
		debug.Trace("tick %d: master %.4f slave %.4f e=%.4f lat=%.4f cmd master=%v(%.4f) slave=%v(%.4f)",
			rec.Tick, rec.Master.Position, rec.Slave.Position, rec.PositionError, rec.LateralError, okM, m, okS, s)
	}
}

func (c *Controller) finish(result *Result) *Result {
	for _, m := range c.metrics {
		if f, ok := m.(Finalizer); ok {
			f.Finalize(result.Final)
		}
		result.Metrics[m.Name()] = m.Value()
	}
	return result
}

func (c *Controller) validate(cmd Command, pair drive.Pair) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if !pair.Valid() {
		return drive.InvalidParameter("both actuators are required")
	}
	if math.IsNaN(cmd.Distance) || math.IsInf(cmd.Distance, 0) {
		return drive.InvalidParameter("distance must be finite, got %g", cmd.Distance)
	}
	if cmd.Distance < 0 && !c.cfg.AllowReverse {
		return drive.InvalidParameter("distance must be >= 0, got %g", cmd.Distance)
	}
	if math.IsNaN(cmd.Power) || math.IsInf(cmd.Power, 0) || cmd.Power == 0 {
		return drive.InvalidParameter("power must be finite and nonzero, got %g", cmd.Power)
	}
	return nil
}

// waitError maps a scheduler error. Anything ending the caller's ctx is a
// cancellation, including a deadline the caller set; only the configured
// Timeout gives ErrTimeout.
func waitError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return drive.ErrCanceled
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return drive.ErrTimeout
	case errors.Is(err, context.Canceled):
		return drive.ErrCanceled
	}
	return fmt.Errorf("scheduler: %w", err)
}

// RunMotion runs strategy over distance with left as master. A nil
// scheduler ticks on wall time.
func RunMotion(ctx context.Context, strategy Strategy, distance, power float64, left, right drive.Actuator, cfg Config, scheduler Scheduler) (*Result, error) {
	return New(cfg, scheduler).Run(ctx, Command{Strategy: strategy, Distance: distance, Power: power}, drive.NewPair(left, right))
}
