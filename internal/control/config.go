package control

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/drivectl/internal/drive"
	"github.com/san-kum/drivectl/internal/units"
)

const (
	DefaultGain         = 0.25
	DefaultTickInterval = 2 * time.Millisecond
	DefaultDeadBand     = 5.0
)

type Gains struct {
	KS float64 // straight tracking
	KP float64 // positional
	KD float64 // derivative
}

// InitialErrorPolicy decides the previous-error value the derivative stage
// sees on its first tick.
type InitialErrorPolicy int

const (
	// InitialErrorZero starts from 0, so the first derivative equals the
	// first position error.
	InitialErrorZero InitialErrorPolicy = iota
	// InitialErrorFirst seeds with the first position error, so the first
	// derivative is 0.
	InitialErrorFirst
)

func (p InitialErrorPolicy) String() string {
	switch p {
	case InitialErrorZero:
		return "zero"
	case InitialErrorFirst:
		return "first"
	}
	return "unknown"
}

func ParseInitialErrorPolicy(s string) (InitialErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return InitialErrorZero, nil
	case "first":
		return InitialErrorFirst, nil
	}
	return 0, fmt.Errorf("unknown initial error policy: %s", s)
}

type Config struct {
	WheelCircumference float64
	Gains              Gains
	TickInterval       time.Duration
	// DeadBand is the half-width of the open termination window around the
	// setpoint, in rotations.
	DeadBand float64
	// MaxTicks bounds the loop; 0 means unbounded.
	MaxTicks int
	// Timeout bounds the command in wall time; 0 means unbounded.
	Timeout      time.Duration
	InitialError InitialErrorPolicy
	// AllowReverse accepts negative distances.
	AllowReverse bool
}

func DefaultConfig() Config {
	return Config{
		WheelCircumference: units.WheelCircumference,
		Gains:              Gains{KS: DefaultGain, KP: DefaultGain, KD: DefaultGain},
		TickInterval:       DefaultTickInterval,
		DeadBand:           DefaultDeadBand,
		InitialError:       InitialErrorZero,
	}
}

func (c Config) Validate() error {
	if !finite(c.WheelCircumference) || c.WheelCircumference <= 0 {
		return drive.InvalidParameter("wheel circumference must be positive, got %g", c.WheelCircumference)
	}
	if !finite(c.DeadBand) || c.DeadBand <= 0 {
		return drive.InvalidParameter("dead band must be positive, got %g", c.DeadBand)
	}
	if c.TickInterval <= 0 {
		return drive.InvalidParameter("tick interval must be positive, got %v", c.TickInterval)
	}
	for name, g := range map[string]float64{"ks": c.Gains.KS, "kp": c.Gains.KP, "kd": c.Gains.KD} {
		if !finite(g) || g < 0 {
			return drive.InvalidParameter("gain %s must be finite and non-negative, got %g", name, g)
		}
	}
	if c.MaxTicks < 0 {
		return drive.InvalidParameter("max ticks must be >= 0, got %d", c.MaxTicks)
	}
	if c.Timeout < 0 {
		return drive.InvalidParameter("timeout must be >= 0, got %v", c.Timeout)
	}
	if c.InitialError != InitialErrorZero && c.InitialError != InitialErrorFirst {
		return drive.InvalidParameter("unknown initial error policy %d", c.InitialError)
	}
	return nil
}

// InDeadBand reports whether pos lies strictly inside the open window
// (goal-DeadBand, goal+DeadBand).
func (c Config) InDeadBand(pos, goal float64) bool {
	return pos < goal+c.DeadBand && pos > goal-c.DeadBand
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
