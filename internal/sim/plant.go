package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/drivectl/internal/drive"
)

type Config struct {
	Tau              float64
	MasterEfficiency float64
	SlaveEfficiency  float64
	Noise            float64
	// Brake is the gain of the deceleration ramp near the move target,
	// in 1/s. 0 disables the ramp.
	Brake    float64
	Substeps int
	Seed     int64
}

func DefaultConfig() Config {
	return Config{
		Tau:              0.05,
		MasterEfficiency: 1.0,
		SlaveEfficiency:  0.97,
		Brake:            4.0,
		Substeps:         4,
	}
}

func (c Config) Validate() error {
	if c.Tau <= 0 {
		return fmt.Errorf("tau must be positive, got %f", c.Tau)
	}
	if c.MasterEfficiency <= 0 || c.SlaveEfficiency <= 0 {
		return fmt.Errorf("efficiency must be positive, got master=%f slave=%f", c.MasterEfficiency, c.SlaveEfficiency)
	}
	if c.Noise < 0 {
		return fmt.Errorf("noise must be >= 0, got %f", c.Noise)
	}
	if c.Brake < 0 {
		return fmt.Errorf("brake must be >= 0, got %f", c.Brake)
	}
	if c.Substeps <= 0 {
		return fmt.Errorf("substeps must be positive, got %d", c.Substeps)
	}
	return nil
}

// Plant is a simulated drivetrain. It doubles as the control loop's
// scheduler: every Wait advances the physics by one tick.
type Plant struct {
	Left  *Motor
	Right *Motor

	integ    Integrator
	brake    float64
	tick     float64
	substeps int
	pace     time.Duration

	t     float64
	ticks int
}

func NewPlant(cfg Config, integ Integrator, tick time.Duration) (*Plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if integ == nil {
		return nil, fmt.Errorf("integrator is required")
	}
	if tick <= 0 {
		return nil, fmt.Errorf("tick must be positive, got %v", tick)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Plant{
		Left:     NewMotor("left", MotorParams{Tau: cfg.Tau, Efficiency: cfg.MasterEfficiency, Noise: cfg.Noise}, rng),
		Right:    NewMotor("right", MotorParams{Tau: cfg.Tau, Efficiency: cfg.SlaveEfficiency, Noise: cfg.Noise}, rng),
		integ:    integ,
		brake:    cfg.Brake,
		tick:     tick.Seconds(),
		substeps: cfg.Substeps,
	}, nil
}

// Pair returns the drivetrain with the left motor as master.
func (p *Plant) Pair() drive.Pair {
	return drive.NewPair(p.Left, p.Right)
}

// Tare zeroes both motors' positions.
func (p *Plant) Tare() {
	p.Left.Tare()
	p.Right.Tare()
}

// SetPace makes each Wait also sleep for d of wall time.
func (p *Plant) SetPace(d time.Duration) { p.pace = d }

func (p *Plant) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if p.pace > 0 {
		timer := time.NewTimer(p.pace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.Advance()
	return nil
}

// Advance integrates both motors over one tick.
func (p *Plant) Advance() {
	dt := p.tick / float64(p.substeps)
	for i := 0; i < p.substeps; i++ {
		p.Left.step(p.integ, p.brake, p.t, dt)
		p.Right.step(p.integ, p.brake, p.t, dt)
		p.t += dt
	}
	p.ticks++
}

// Time is simulated seconds elapsed.
func (p *Plant) Time() float64 { return p.t }

func (p *Plant) Ticks() int { return p.ticks }
