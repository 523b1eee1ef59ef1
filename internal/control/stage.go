package control

import "github.com/san-kum/drivectl/internal/drive"

// Observation is one tick's sample of the drivetrain.
type Observation struct {
	Tick   int
	Goal   float64
	Master drive.Reading
	Slave  drive.Reading
}

// PositionError is the master's remaining travel to the setpoint.
func (o Observation) PositionError() float64 {
	return o.Goal - o.Master.Position
}

// LateralError is how far the slave trails the master.
func (o Observation) LateralError() float64 {
	return o.Master.Position - o.Slave.Position
}

// State is the loop state scoped to one motion command.
type State struct {
	PreviousError float64
	primed        bool
}

// Commands holds at most one velocity override per role for a tick.
type Commands struct {
	values [2]float64
	set    [2]bool
}

// Set records v for role r, replacing any earlier value this tick.
func (c *Commands) Set(r drive.Role, v float64) {
	c.values[r] = v
	c.set[r] = true
}

func (c Commands) Get(r drive.Role) (float64, bool) {
	return c.values[r], c.set[r]
}

func (c Commands) Empty() bool {
	return !c.set[drive.Master] && !c.set[drive.Slave]
}

// Stage is one correction law. A stage that does not fire leaves cmd
// untouched; it never writes a zero in place of skipping.
type Stage interface {
	Name() string
	Apply(obs Observation, g Gains, st *State, cmd *Commands)
}

// StraightStage corrects the slave's velocity toward the master's position.
type StraightStage struct{}

func (StraightStage) Name() string { return "straight" }

func (StraightStage) Apply(obs Observation, g Gains, st *State, cmd *Commands) {
	if obs.Master.Position == obs.Slave.Position {
		return
	}
	cmd.Set(drive.Slave, obs.Slave.Velocity+obs.LateralError()*g.KS)
}
