package control

import "context"

// clock is a scheduler that only counts ticks.
type clock struct {
	ticks int
	err   error
}

func (c *clock) Wait(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.ticks++
	return nil
}

type move struct {
	rotations float64
	power     float64
}

// scripted is an actuator whose readback is a function of the clock.
type scripted struct {
	clock     *clock
	pos       func(tick int) float64
	vel       float64
	moves     []move
	overrides []float64
}

func newScripted(c *clock, pos func(tick int) float64) *scripted {
	return &scripted{clock: c, pos: pos}
}

func (s *scripted) MoveRelative(rotations, power float64) {
	s.moves = append(s.moves, move{rotations, power})
}

func (s *scripted) Position() float64       { return s.pos(s.clock.ticks) }
func (s *scripted) ActualVelocity() float64 { return s.vel }
func (s *scripted) SetVelocityOverride(v float64) {
	s.overrides = append(s.overrides, v)
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

// ramp rises by step per tick.
func ramp(step float64) func(int) float64 {
	return func(tick int) float64 { return float64(tick) * step }
}

// until holds v until tick n, then jumps to final.
func until(n int, v, final float64) func(int) float64 {
	return func(tick int) float64 {
		if tick < n {
			return v
		}
		return final
	}
}

// unitConfig uses a circumference of 1 so distances are rotations.
func unitConfig() Config {
	cfg := DefaultConfig()
	cfg.WheelCircumference = 1
	return cfg
}
