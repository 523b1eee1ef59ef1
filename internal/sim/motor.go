package sim

import (
	"math"
	"math/rand"
)

// Motor is a simulated smart motor running a profiled relative move.
// Velocities are in rotations per second.
type Motor struct {
	name string
	x    State // [position, velocity]
	dyn  *motorDynamics

	target  float64
	profile float64
	moving  bool

	noise float64
	rng   *rand.Rand

	moves     int
	overrides int
}

// motorDynamics is a first-order velocity loop: the motor approaches
// efficiency*u with time constant tau.
type motorDynamics struct {
	tau        float64
	efficiency float64
}

func (d *motorDynamics) Derivative(x State, u Control, t float64) State {
	return State{x[1], (d.efficiency*u[0] - x[1]) / d.tau}
}

func (d *motorDynamics) StateDim() int   { return 2 }
func (d *motorDynamics) ControlDim() int { return 1 }

type MotorParams struct {
	Tau        float64 // velocity time constant, seconds
	Efficiency float64 // fraction of commanded velocity achieved
	Noise      float64 // stddev of velocity readback noise
}

func NewMotor(name string, p MotorParams, rng *rand.Rand) *Motor {
	return &Motor{
		name:  name,
		x:     State{0, 0},
		dyn:   &motorDynamics{tau: p.Tau, efficiency: p.Efficiency},
		noise: p.Noise,
		rng:   rng,
	}
}

func (m *Motor) Name() string { return m.name }

func (m *Motor) MoveRelative(rotations, power float64) {
	m.target = m.x[0] + rotations
	m.profile = power
	m.moving = true
	m.moves++
}

func (m *Motor) Position() float64 { return m.x[0] }

func (m *Motor) ActualVelocity() float64 {
	if m.noise > 0 && m.rng != nil {
		return m.x[1] + m.noise*m.rng.NormFloat64()
	}
	return m.x[1]
}

func (m *Motor) SetVelocityOverride(velocity float64) {
	m.profile = velocity
	m.overrides++
}

// Tare zeroes the position reading, keeping any move in progress aimed at
// the same physical point.
func (m *Motor) Tare() {
	m.target -= m.x[0]
	m.x[0] = 0
}

// Target is the position the current move ends at.
func (m *Motor) Target() float64 { return m.target }

// Moves and Overrides count commands received since construction.
func (m *Motor) Moves() int     { return m.moves }
func (m *Motor) Overrides() int { return m.overrides }

// setpoint is the velocity the motor's own profile asks for: toward the
// target at |profile|, ramped down by brake near the target.
func (m *Motor) setpoint(brake float64) float64 {
	if !m.moving {
		return 0
	}
	remaining := m.target - m.x[0]
	speed := math.Abs(m.profile)
	if brake > 0 {
		speed = math.Min(speed, brake*math.Abs(remaining))
	}
	return math.Copysign(speed, remaining)
}

func (m *Motor) step(integ Integrator, brake, t, dt float64) {
	u := Control{m.setpoint(brake)}
	next := integ.Step(m.dyn, m.x, u, t, dt)
	if next.IsValid() {
		m.x = next
	}
}
