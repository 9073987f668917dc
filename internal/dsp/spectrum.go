package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MagnitudeSpectrum returns |X[k]| for k in [0, N/2), the positive-frequency
// half of the discrete Fourier transform of x. Bin k corresponds to
// k * samplingRate / N hertz.
func MagnitudeSpectrum(x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return nil
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, x)
	mags := make([]float64, n/2)
	for k := range mags {
		mags[k] = cmplx.Abs(coeffs[k])
	}
	return mags
}

// Bin maps a frequency onto the spectrum index round(freq * N / samplingRate)
func Bin(freqHz float64, n, samplingRateHz int) int {
	if samplingRateHz <= 0 {
		return 0
	}
	return int(math.Round(freqHz * float64(n) / float64(samplingRateHz)))
}

// DominantFrequency returns the frequency of the first maximal bin in spectrum.
// n is the length of the time-domain signal the spectrum came from.
func DominantFrequency(spectrum []float64, n, samplingRateHz int) float64 {
	if len(spectrum) == 0 || n == 0 {
		return 0
	}
	best := 0
	for k, m := range spectrum {
		if m > spectrum[best] {
			best = k
		}
	}
	return float64(best) * float64(samplingRateHz) / float64(n)
}

// THD returns the summed magnitude of every non-DC bin other than the
// fundamental, divided by the fundamental magnitude. It is 0 when the
// fundamental bin is out of range or has zero magnitude.
func THD(spectrum []float64, fundamentalBin int) float64 {
	if fundamentalBin < 0 || fundamentalBin >= len(spectrum) {
		return 0
	}
	fundamental := spectrum[fundamentalBin]
	if fundamental == 0 {
		return 0
	}
	harmonic := 0.0
	for k := 1; k < len(spectrum); k++ {
		if k == fundamentalBin {
			continue
		}
		harmonic += spectrum[k]
	}
	return harmonic / fundamental
}
