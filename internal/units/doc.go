// Package units converts between linear travel and wheel rotations.
package units
