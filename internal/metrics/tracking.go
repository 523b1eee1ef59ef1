package metrics

import (
	"math"

	"github.com/san-kum/drivectl/internal/control"
)

// LateralRMS is the root mean square of master minus slave position.
type LateralRMS struct {
	sumSq   float64
	samples int
}

func NewLateralRMS() *LateralRMS {
	return &LateralRMS{}
}

func (l *LateralRMS) Name() string { return "lateral_rms" }

func (l *LateralRMS) Observe(rec control.TickRecord) {
	l.sumSq += rec.LateralError * rec.LateralError
	l.samples++
}

func (l *LateralRMS) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return math.Sqrt(l.sumSq / float64(l.samples))
}

func (l *LateralRMS) Reset() {
	l.sumSq = 0
	l.samples = 0
}

// Overshoot is the furthest the master travelled past the setpoint, in
// rotations, measured in the direction of travel.
type Overshoot struct {
	max float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{}
}

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(rec control.TickRecord) { o.observe(rec.Observation) }

func (o *Overshoot) Finalize(final control.Observation) { o.observe(final) }

func (o *Overshoot) observe(obs control.Observation) {
	past := obs.Master.Position - obs.Goal
	if obs.Goal < 0 {
		past = -past
	}
	if past > o.max {
		o.max = past
	}
}

func (o *Overshoot) Value() float64 { return o.max }

func (o *Overshoot) Reset() { o.max = 0 }

// FinalError is the goal minus the last observed master position,
// including the observation that ended the run.
type FinalError struct {
	last float64
}

func NewFinalError() *FinalError {
	return &FinalError{}
}

func (f *FinalError) Name() string { return "final_error" }

func (f *FinalError) Observe(rec control.TickRecord) { f.last = rec.PositionError }

func (f *FinalError) Finalize(final control.Observation) { f.last = final.PositionError() }

func (f *FinalError) Value() float64 { return f.last }

func (f *FinalError) Reset() { f.last = 0 }
