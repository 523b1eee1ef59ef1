package metrics

import "github.com/san-kum/drivectl/internal/control"

// Reversals counts sign changes of the position error, a cheap ringing
// indicator for the derivative stage.
type Reversals struct {
	last  float64
	count int
}

func NewReversals() *Reversals {
	return &Reversals{}
}

func (r *Reversals) Name() string { return "error_reversals" }

func (r *Reversals) Observe(rec control.TickRecord) {
	e := rec.PositionError
	if e == 0 {
		return
	}
	if r.last != 0 && (e > 0) != (r.last > 0) {
		r.count++
	}
	r.last = e
}

func (r *Reversals) Value() float64 { return float64(r.count) }

func (r *Reversals) Reset() {
	r.last = 0
	r.count = 0
}
