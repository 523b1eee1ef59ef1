package metrics

import (
	"math"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/drive"
)

// OverrideEffort is the mean absolute velocity override per issued command.
type OverrideEffort struct {
	name    string
	sum     float64
	samples int
}

func NewOverrideEffort() *OverrideEffort {
	return &OverrideEffort{
		name: "override_effort",
	}
}

func (c *OverrideEffort) Name() string {
	return c.name
}

func (c *OverrideEffort) Observe(rec control.TickRecord) {
	for _, r := range drive.Roles {
		if v, ok := rec.Commands.Get(r); ok {
			c.sum += math.Abs(v)
			c.samples++
		}
	}
}

func (c *OverrideEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *OverrideEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
