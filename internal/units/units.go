package units

import "math"

// WheelCircumference is the travel per rotation of a 4 inch wheel, in inches.
const WheelCircumference = 4 * math.Pi

// ToRotations converts a linear distance into a wheel rotation setpoint.
// circumference must be nonzero; callers validate it.
func ToRotations(distance, circumference float64) float64 {
	return distance / circumference
}

// ToDistance converts rotations back into linear travel.
func ToDistance(rotations, circumference float64) float64 {
	return rotations * circumference
}
