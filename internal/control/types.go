package control

import (
	"math"

	"github.com/san-kum/drivectl/internal/drive"
)

// Command is one blocking motion request.
type Command struct {
	Strategy Strategy
	Distance float64 // linear units matching Config.WheelCircumference
	Power    float64 // nominal velocity for the initial relative move
}

// TickRecord is what the loop saw and commanded on one tick.
type TickRecord struct {
	Observation
	PositionError float64
	LateralError  float64
	Commands      Commands
	// PreviousError is the derivative state after this tick's stages ran.
	PreviousError float64
}

type Metric interface {
	Name() string
	Observe(rec TickRecord)
	Value() float64
	Reset()
}

// Finalizer is implemented by metrics that also need the observation that
// ended the run. That sample is never recorded as a tick.
type Finalizer interface {
	Finalize(final Observation)
}

type Observer interface {
	OnTick(rec TickRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec TickRecord)

func (f ObserverFunc) OnTick(rec TickRecord) { f(rec) }

type Result struct {
	Strategy Strategy
	Goal     float64
	// Ticks is the number of loop bodies executed before exit.
	Ticks int
	// Final is the last sample taken, the one that ended the loop.
	Final   Observation
	Trace   []TickRecord
	Metrics map[string]float64
}

// Overrides returns the commanded values for each tick, NaN where a role
// received no override.
func (r *Result) Overrides() (master, slave []float64) {
	master = make([]float64, len(r.Trace))
	slave = make([]float64, len(r.Trace))
	for i, rec := range r.Trace {
		master[i] = commandOrNaN(rec.Commands, drive.Master)
		slave[i] = commandOrNaN(rec.Commands, drive.Slave)
	}
	return master, slave
}

func commandOrNaN(c Commands, r drive.Role) float64 {
	if v, ok := c.Get(r); ok {
		return v
	}
	return math.NaN()
}
