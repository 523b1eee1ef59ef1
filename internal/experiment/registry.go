package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/integrators"
	"github.com/san-kum/drivectl/internal/metrics"
	"github.com/san-kum/drivectl/internal/sim"
)

type Registry struct {
	integrators map[string]func() sim.Integrator
	metrics     map[string]func() control.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
		metrics:     make(map[string]func() control.Metric),
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() sim.Integrator { return integrators.NewVerlet() }

	r.metrics["lateral_rms"] = func() control.Metric { return metrics.NewLateralRMS() }
	r.metrics["override_effort"] = func() control.Metric { return metrics.NewOverrideEffort() }
	r.metrics["overshoot"] = func() control.Metric { return metrics.NewOvershoot() }
	r.metrics["error_reversals"] = func() control.Metric { return metrics.NewReversals() }
	r.metrics["final_error"] = func() control.Metric { return metrics.NewFinalError() }

	return r
}

// GetIntegrator returns a fresh integrator; integrators keep scratch space
// and must not be shared between plants.
func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetric(name string) (control.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func (r *Registry) ListMetrics() []string { return sortedKeys(r.metrics) }

func (r *Registry) ListStrategies() []string {
	names := make([]string, len(control.Strategies))
	for i, s := range control.Strategies {
		names[i] = s.String()
	}
	return names
}

// DefaultMetrics returns one fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []control.Metric {
	names := r.ListMetrics()
	ms := make([]control.Metric, len(names))
	for i, name := range names {
		ms[i] = r.metrics[name]()
	}
	return ms
}

func sortedKeys[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
