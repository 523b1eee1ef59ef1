package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/debug"
	"github.com/san-kum/drivectl/internal/experiment"
)

// Routine is a scripted sequence of motion commands run back to back on
// one drivetrain, like an autonomous period.
type Routine struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	Strategy string  `yaml:"strategy"`
	Distance float64 `yaml:"distance"`
	Power    float64 `yaml:"power"`
	// PauseMs lets the plant coast after the command, in milliseconds.
	PauseMs int `yaml:"pause_ms"`
}

func LoadRoutine(path string) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var routine Routine
	if err := yaml.Unmarshal(data, &routine); err != nil {
		return nil, err
	}
	if err := routine.Validate(); err != nil {
		return nil, fmt.Errorf("routine %s: %w", path, err)
	}
	return &routine, nil
}

func (r *Routine) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	var err error
	for i, step := range r.Steps {
		if _, perr := control.ParseStrategy(step.Strategy); perr != nil {
			err = multierr.Append(err, fmt.Errorf("step %d: %w", i+1, perr))
		}
		if step.PauseMs < 0 {
			err = multierr.Append(err, fmt.Errorf("step %d: pause_ms must be >= 0, got %d", i+1, step.PauseMs))
		}
	}
	return err
}

type StepResult struct {
	Step   Step
	Result *control.Result
}

// Run executes the routine on a single simulated plant built from base.
// Positions are tared before every step. A step with zero power uses
// base.Power. Run stops at the first failing step and returns the steps
// completed so far with the error.
func Run(ctx context.Context, routine *Routine, base experiment.Config) ([]StepResult, error) {
	exp, err := experiment.New(base)
	if err != nil {
		return nil, err
	}
	plant := exp.Plant()
	pauseTicks := func(ms int) int {
		return int(time.Duration(ms) * time.Millisecond / base.Control.TickInterval)
	}

	results := make([]StepResult, 0, len(routine.Steps))
	for i, step := range routine.Steps {
		strategy, err := control.ParseStrategy(step.Strategy)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		power := step.Power
		if power == 0 {
			power = base.Power
		}

		debug.Info("step %d/%d: %s %.2f", i+1, len(routine.Steps), strategy, step.Distance)
		plant.Tare()
		result, err := exp.RunCommand(ctx, control.Command{Strategy: strategy, Distance: step.Distance, Power: power})
		if result != nil {
			results = append(results, StepResult{Step: step, Result: result})
		}
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		debug.Live("step %d/%d done in %d ticks, master %.4f rot, lateral %+.4f",
			i+1, len(routine.Steps), result.Ticks, result.Final.Master.Position, result.Final.LateralError())

		for n := pauseTicks(step.PauseMs); n > 0; n-- {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			plant.Advance()
		}
	}
	return results, nil
}

// Travelled is the master travel of each step in rotations, up to the
// sample that ended it.
func Travelled(results []StepResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Result.Final.Master.Position
	}
	return out
}
