package drive

// Actuator is a rotary motion device with position and velocity sensing.
// Positions are in rotations, velocities in rotations per unit time.
type Actuator interface {
	// MoveRelative starts an asynchronous move to Position()+rotations at
	// the nominal power and returns immediately.
	MoveRelative(rotations, power float64)
	Position() float64
	ActualVelocity() float64
	// SetVelocityOverride replaces the target velocity of the move in
	// progress without restarting it or moving its position target.
	SetVelocityOverride(velocity float64)
}

type Role int

const (
	Master Role = iota
	Slave
)

var roleNames = [...]string{"master", "slave"}

func (r Role) String() string {
	if r < Master || r > Slave {
		return "unknown"
	}
	return roleNames[r]
}

// Roles lists roles in dispatch order.
var Roles = [...]Role{Master, Slave}

type Pair struct {
	Master Actuator
	Slave  Actuator
}

// NewPair builds a drivetrain with the left side as master.
func NewPair(left, right Actuator) Pair {
	return Pair{Master: left, Slave: right}
}

func (p Pair) Actuator(r Role) Actuator {
	if r == Slave {
		return p.Slave
	}
	return p.Master
}

func (p Pair) Valid() bool {
	return p.Master != nil && p.Slave != nil
}

// Reading is an instantaneous snapshot of one actuator.
type Reading struct {
	Position float64
	Velocity float64
}

func Read(a Actuator) Reading {
	return Reading{Position: a.Position(), Velocity: a.ActualVelocity()}
}
