package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PowerSpectrum returns |X[k]| for k in [0, n/2) after removing the mean
// and applying a Hann window.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	hann := window.Hann(n)
	x := make([]float64, n)
	for i, v := range data {
		x[i] = (v - mean) * hann[i]
	}

	spectrum := fft.FFTReal(x)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

type Oscillation struct {
	Frequency float64 // Hz when sampleRate is in Hz
	Magnitude float64
	// Ratio is the peak magnitude over the mean non-DC magnitude.
	Ratio float64
}

// DominantOscillation finds the strongest non-DC bin of data sampled at
// sampleRate.
func DominantOscillation(data []float64, sampleRate float64) Oscillation {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return Oscillation{}
	}

	peak, sum := 1, 0.0
	for k := 1; k < len(ps); k++ {
		sum += ps[k]
		if ps[k] > ps[peak] {
			peak = k
		}
	}

	osc := Oscillation{
		Frequency: float64(peak) * sampleRate / float64(len(data)),
		Magnitude: ps[peak],
	}
	if mean := sum / float64(len(ps)-1); mean > 0 {
		osc.Ratio = ps[peak] / mean
	}
	return osc
}
