package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/drivectl/internal/sim"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// lagDynamics is a first-order velocity loop chasing u[0].
type lagDynamics struct{ tau float64 }

func (l *lagDynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], (u[0] - x[1]) / l.tau}
}

func (l *lagDynamics) StateDim() int   { return 2 }
func (l *lagDynamics) ControlDim() int { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x := sim.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, sim.Control{}, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestIntegratorsTrackVelocityLag(t *testing.T) {
	tests := []struct {
		name  string
		integ sim.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 2e-2},
		{"rk4", NewRK4(), 1e-4},
		{"verlet", NewVerlet(), 1e-2},
	}

	tau := 0.05
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dyn := &lagDynamics{tau: tau}
			x := sim.State{0, 0}
			dt := 0.001
			for i := 0; i < 100; i++ {
				x = tt.integ.Step(dyn, x, sim.Control{2}, float64(i)*dt, dt)
			}
			// v(t) = 2(1-e^{-t/tau}), t = 0.1
			want := 2 * (1 - math.Exp(-0.1/tau))
			if math.Abs(x[1]-want) > tt.tol {
				t.Errorf("velocity %.6f, want %.6f", x[1], want)
			}
		})
	}
}
