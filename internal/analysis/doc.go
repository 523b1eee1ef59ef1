// Package analysis inspects recorded control loop signals.
//
//   - [PowerSpectrum]: one-sided magnitude spectrum of a Hann-windowed signal
//   - [DominantOscillation]: strongest non-DC frequency in a signal
//
// # Ringing
//
// A PD run whose position error keeps crossing zero shows up as a sharp
// spectral peak:
//
//	osc := analysis.DominantOscillation(errs, 500) // 2 ms ticks
//	if osc.Ratio > 5 {
//	    // kD too low for this plant
//	}
package analysis
