package sim

import (
	"context"
	"math"
	"testing"
	"time"
)

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn Dynamics, x State, u Control, tm float64, dt float64) State {
	dx := dyn.Derivative(x, u, tm)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

func newTestPlant(t *testing.T, cfg Config) *Plant {
	t.Helper()
	p, err := NewPlant(cfg, &testIntegrator{}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}
	return p
}

func TestPlantIdleWithoutMove(t *testing.T) {
	p := newTestPlant(t, DefaultConfig())
	for i := 0; i < 50; i++ {
		p.Advance()
	}
	if p.Left.Position() != 0 || p.Right.Position() != 0 {
		t.Errorf("motors moved without a command: %f %f", p.Left.Position(), p.Right.Position())
	}
	if p.Ticks() != 50 {
		t.Errorf("expected 50 ticks, got %d", p.Ticks())
	}
}

func TestPlantReachesTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlaveEfficiency = 1.0
	p := newTestPlant(t, cfg)

	p.Left.MoveRelative(2, 3)
	p.Right.MoveRelative(2, 3)
	for i := 0; i < 1000; i++ {
		p.Advance()
	}

	for _, m := range []*Motor{p.Left, p.Right} {
		if math.Abs(m.Position()-2) > 0.01 {
			t.Errorf("%s: expected ~2 rotations, got %f", m.Name(), m.Position())
		}
		if math.Abs(m.ActualVelocity()) > 0.05 {
			t.Errorf("%s: expected to settle, velocity %f", m.Name(), m.ActualVelocity())
		}
	}
	if math.Abs(p.Time()-10) > 1e-6 {
		t.Errorf("expected 10s simulated, got %f", p.Time())
	}
}

func TestPlantSlaveDrift(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlaveEfficiency = 0.8
	cfg.Brake = 0
	p := newTestPlant(t, cfg)

	p.Left.MoveRelative(100, 2)
	p.Right.MoveRelative(100, 2)
	for i := 0; i < 100; i++ {
		p.Advance()
	}
	if p.Right.Position() >= p.Left.Position() {
		t.Errorf("weaker slave should trail: master %f slave %f", p.Left.Position(), p.Right.Position())
	}
}

func TestMotorOverrideKeepsTarget(t *testing.T) {
	p := newTestPlant(t, DefaultConfig())
	p.Left.MoveRelative(5, 1)
	target := p.Left.Target()

	p.Left.SetVelocityOverride(4)
	if p.Left.Target() != target {
		t.Errorf("override moved target from %f to %f", target, p.Left.Target())
	}
	if p.Left.Moves() != 1 || p.Left.Overrides() != 1 {
		t.Errorf("expected 1 move and 1 override, got %d and %d", p.Left.Moves(), p.Left.Overrides())
	}
}

func TestPlantWaitHonoursContext(t *testing.T) {
	p := newTestPlant(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
	if p.Ticks() != 0 {
		t.Errorf("canceled wait should not advance, got %d ticks", p.Ticks())
	}
}

func TestPlantNoiseIsSeeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Noise = 0.1
	cfg.Seed = 42

	a := newTestPlant(t, cfg)
	b := newTestPlant(t, cfg)
	for i := 0; i < 5; i++ {
		if a.Left.ActualVelocity() != b.Left.ActualVelocity() {
			t.Fatal("same seed should give same readback noise")
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tau", func(c *Config) { c.Tau = 0 }},
		{"zero efficiency", func(c *Config) { c.SlaveEfficiency = 0 }},
		{"negative noise", func(c *Config) { c.Noise = -1 }},
		{"negative brake", func(c *Config) { c.Brake = -1 }},
		{"zero substeps", func(c *Config) { c.Substeps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPlantTareKeepsMoveTarget(t *testing.T) {
	p := newTestPlant(t, DefaultConfig())
	p.Left.MoveRelative(2, 3)
	for i := 0; i < 20; i++ {
		p.Advance()
	}

	before := p.Left.Position()
	remaining := p.Left.Target() - before
	p.Tare()

	if p.Left.Position() != 0 || p.Right.Position() != 0 {
		t.Errorf("expected zero positions after tare, got %f %f", p.Left.Position(), p.Right.Position())
	}
	if math.Abs(p.Left.Target()-remaining) > 1e-12 {
		t.Errorf("expected target %f after tare, got %f", remaining, p.Left.Target())
	}
}
