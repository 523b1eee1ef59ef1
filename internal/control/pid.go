package control

import "github.com/san-kum/drivectl/internal/drive"

// PositionalStage drives both actuators at a velocity proportional to the
// master's remaining travel.
type PositionalStage struct{}

func (PositionalStage) Name() string { return "positional" }

func (PositionalStage) Apply(obs Observation, g Gains, st *State, cmd *Commands) {
	if obs.Master.Position == obs.Goal {
		return
	}
	u := obs.PositionError() * g.KP
	cmd.Set(drive.Master, u)
	cmd.Set(drive.Slave, u)
}

// DerivativeStage replaces the positional command with kP*e + kD*(e-prev).
// prev is updated every tick, including ticks where the guard skips the
// command.
type DerivativeStage struct {
	Initial InitialErrorPolicy
}

func (DerivativeStage) Name() string { return "derivative" }

func (d DerivativeStage) Apply(obs Observation, g Gains, st *State, cmd *Commands) {
	err := obs.PositionError()

	if !st.primed {
		if d.Initial == InitialErrorFirst {
			st.PreviousError = err
		}
		st.primed = true
	}

	if obs.Master.Position != obs.Goal {
		derivative := err - st.PreviousError
		u := err*g.KP + derivative*g.KD
		cmd.Set(drive.Master, u)
		cmd.Set(drive.Slave, u)
	}

	st.PreviousError = err
}
