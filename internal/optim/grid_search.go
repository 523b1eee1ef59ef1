package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/debug"
	"github.com/san-kum/drivectl/internal/experiment"
)

// GainNames are the parameters ApplyGains understands.
var GainNames = []string{"ks", "kp", "kd"}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d params but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

type SearchResult struct {
	Params map[string]float64
	Value  float64
	// Evaluated and Skipped count grid points run and points whose run
	// failed (stalled, timed out or invalid).
	Evaluated int
	Skipped   int
}

// Search runs every grid point and keeps the one minimising metricName.
// It fails only when no point produced a result or ctx is done.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (*SearchResult, error) {
	sr := &SearchResult{Value: math.Inf(1)}

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, sr); err != nil {
		return nil, err
	}
	if sr.Params == nil {
		return nil, fmt.Errorf("no grid point completed (%d skipped)", sr.Skipped)
	}
	return sr, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	sr *SearchResult,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		sr.Evaluated++

		exp, err := buildExperiment(current)
		if err != nil {
			sr.Skipped++
			debug.Verbose("tune %v: %v", current, err)
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sr.Skipped++
			debug.Verbose("tune %v: %v", current, err)
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %s not recorded", metricName)
		}
		debug.Verbose("tune %v: %s=%.6f in %d ticks", current, metricName, val, result.Ticks)
		if val < sr.Value {
			sr.Value = val
			sr.Params = make(map[string]float64)
			for k, v := range current {
				sr.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, sr); err != nil {
			return err
		}
	}
	return nil
}

// ApplyGains overrides the gains named in params.
func ApplyGains(g control.Gains, params map[string]float64) (control.Gains, error) {
	for name, v := range params {
		switch name {
		case "ks":
			g.KS = v
		case "kp":
			g.KP = v
		case "kd":
			g.KD = v
		default:
			return g, fmt.Errorf("unknown gain: %s", name)
		}
	}
	return g, nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	vals := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range vals {
		vals[i] = lo + float64(i)*step
	}
	return vals
}
