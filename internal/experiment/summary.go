package experiment

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates one metric over the successful outcomes of a batch.
type Summary struct {
	Metric string
	Runs   int
	Failed int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize reduces metric over outcomes without an error. The special
// metric "ticks" uses the tick count. Statistics are NaN when no outcome
// succeeded.
func Summarize(outcomes []Outcome, metric string) Summary {
	s := Summary{Metric: metric}
	vals := make([]float64, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Err != nil || out.Result == nil {
			s.Failed++
			continue
		}
		if metric == "ticks" {
			vals = append(vals, float64(out.Result.Ticks))
			continue
		}
		v, ok := out.Result.Metrics[metric]
		if !ok {
			s.Failed++
			continue
		}
		vals = append(vals, v)
	}

	s.Runs = len(vals)
	if len(vals) == 0 {
		s.Mean, s.StdDev, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(vals), floats.Max(vals)
	return s
}

// Failures combines the errors of every failed outcome, or returns nil.
func Failures(outcomes []Outcome) error {
	var err error
	for _, out := range outcomes {
		if out.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s (seed %d): %w", out.Strategy, out.Seed, out.Err))
		}
	}
	return err
}
