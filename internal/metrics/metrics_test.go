package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/drive"
)

func record(goal, master, slave float64) control.TickRecord {
	obs := control.Observation{
		Goal:   goal,
		Master: drive.Reading{Position: master},
		Slave:  drive.Reading{Position: slave},
	}
	return control.TickRecord{
		Observation:   obs,
		PositionError: obs.PositionError(),
		LateralError:  obs.LateralError(),
	}
}

func TestLateralRMS(t *testing.T) {
	m := NewLateralRMS()
	m.Observe(record(10, 1, 0))
	m.Observe(record(10, 2, 3))

	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected rms 1, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestOverrideEffort(t *testing.T) {
	m := NewOverrideEffort()

	rec := record(10, 0, 0)
	rec.Commands.Set(drive.Master, -2)
	rec.Commands.Set(drive.Slave, 4)
	m.Observe(rec)
	m.Observe(record(10, 0, 0))

	if m.Value() != 3 {
		t.Errorf("expected mean effort 3, got %f", m.Value())
	}
}

func TestOvershoot(t *testing.T) {
	tests := []struct {
		name     string
		goal     float64
		masters  []float64
		expected float64
	}{
		{"forward no overshoot", 10, []float64{2, 6, 9.5}, 0},
		{"forward overshoot", 10, []float64{6, 11.5, 10.2}, 1.5},
		{"reverse overshoot", -10, []float64{-6, -10.75}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewOvershoot()
			for _, p := range tt.masters {
				m.Observe(record(tt.goal, p, p))
			}
			if math.Abs(m.Value()-tt.expected) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.expected, m.Value())
			}
		})
	}
}

func TestReversals(t *testing.T) {
	m := NewReversals()
	for _, p := range []float64{0, 8, 11, 10, 9, 10.5} {
		m.Observe(record(10, p, p))
	}
	if m.Value() != 3 {
		t.Errorf("expected 3 reversals, got %f", m.Value())
	}
}

func TestFinalError(t *testing.T) {
	m := NewFinalError()
	m.Observe(record(10, 4, 4))
	m.Observe(record(10, 9.25, 9))
	if m.Value() != 0.75 {
		t.Errorf("expected 0.75, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

// rampActuator advances by step rotations every scheduler tick.
type rampActuator struct {
	ticks *int
	step  float64
}

func (r rampActuator) MoveRelative(rotations, power float64) {}
func (r rampActuator) Position() float64                     { return float64(*r.ticks) * r.step }
func (r rampActuator) ActualVelocity() float64               { return r.step }
func (r rampActuator) SetVelocityOverride(v float64)         {}

func TestTerminatingSampleReachesMetrics(t *testing.T) {
	var ticks int
	sched := control.SchedulerFunc(func(ctx context.Context) error {
		ticks++
		return nil
	})
	cfg := control.DefaultConfig()
	cfg.WheelCircumference = 1
	cfg.DeadBand = 0.5

	final, over := NewFinalError(), NewOvershoot()
	ctrl := control.New(cfg, sched)
	ctrl.AddMetric(final)
	ctrl.AddMetric(over)

	// master reads 0, 3, 6 on recorded ticks and stops at 9
	ramp := rampActuator{ticks: &ticks, step: 3}
	res, err := ctrl.Run(context.Background(), control.Command{Strategy: control.OpenLoop, Distance: 8.8, Power: 1}, drive.NewPair(ramp, ramp))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Final.Master.Position != 9 {
		t.Fatalf("expected to stop at 9, got %f", res.Final.Master.Position)
	}
	if got := res.Metrics["final_error"]; math.Abs(got+0.2) > 1e-9 {
		t.Errorf("final_error = %f, want -0.2", got)
	}
	if got := res.Metrics["overshoot"]; math.Abs(got-0.2) > 1e-9 {
		t.Errorf("overshoot = %f, want 0.2", got)
	}
}
