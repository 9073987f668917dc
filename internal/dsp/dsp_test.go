package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(amplitude, freqHz float64, samplingRateHz, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / float64(samplingRateHz)
		x[i] = amplitude * math.Sin(2*math.Pi*freqHz*t)
	}
	return x
}

func TestRMSOfSinusoid(t *testing.T) {
	for _, n := range []int{200, 1000, 4000} {
		x := sine(100, 50, 1000, n)
		assert.InDelta(t, 100/math.Sqrt2, RMS(x), 1e-6, "n=%d", n)
	}
}

func TestRMSAndPeakDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.Equal(t, 0.0, Peak(nil))
	assert.Equal(t, 0.0, RMS(make([]float64, 16)))
	assert.Equal(t, 7.5, Peak([]float64{1, -7.5, 3}))
}

func TestMeanProduct(t *testing.T) {
	assert.InDelta(t, 5.0, MeanProduct([]float64{1, 2, 3}, []float64{3, 3, 2}), 1e-12)
	assert.Equal(t, 0.0, MeanProduct(nil, nil))
}

func TestEdges(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		wantSize int
	}{
		{"long window", 100, 10},
		{"exact decile", 10, 1},
		{"short window", 5, 1},
		{"single sample", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := make([]float64, tt.n)
			for i := range x {
				x[i] = float64(i)
			}
			head, tail := Edges(x, 0.1)
			require.Len(t, head, tt.wantSize)
			require.Len(t, tail, tt.wantSize)
			assert.Equal(t, 0.0, head[0])
			assert.Equal(t, float64(tt.n-1), tail[len(tail)-1])
		})
	}
}

func TestDropRatio(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 10
	}
	x[18], x[19] = 5, 5
	assert.InDelta(t, 0.5, DropRatio(x, 0.1), 1e-12)

	assert.Equal(t, 0.0, DropRatio(make([]float64, 20), 0.1), "zero initial RMS must not divide")
}

func TestUnbalance(t *testing.T) {
	assert.InDelta(t, 50.0, Unbalance(10, 5, 8), 1e-12)
	assert.Equal(t, 0.0, Unbalance(0, 0, 0))
	assert.Equal(t, 0.0, Unbalance())
}

func TestMoments(t *testing.T) {
	skew, kurt := Moments([]float64{0, 0, 0, 1})
	assert.InDelta(t, 1.1547005, skew, 1e-6)
	assert.InDelta(t, -2.0/3.0, kurt, 1e-6)

	skew, kurt = Moments([]float64{4, 4, 4, 4})
	assert.Equal(t, 0.0, skew)
	assert.Equal(t, 0.0, kurt)

	skew, _ = Moments(sine(1, 50, 1000, 1000))
	assert.InDelta(t, 0.0, skew, 1e-9)
}

func TestSpectrumDominantFrequency(t *testing.T) {
	x := sine(230, 50, 1000, 1000)
	spec := MagnitudeSpectrum(x)
	require.Len(t, spec, 500)
	assert.InDelta(t, 50.0, DominantFrequency(spec, len(x), 1000), 1e-9)

	x = sine(230, 60, 2000, 400)
	spec = MagnitudeSpectrum(x)
	assert.InDelta(t, 60.0, DominantFrequency(spec, len(x), 2000), 1e-9)
}

func TestSpectrumDegenerate(t *testing.T) {
	assert.Nil(t, MagnitudeSpectrum([]float64{1}))
	assert.Equal(t, 0.0, DominantFrequency(nil, 0, 1000))
}

func TestBin(t *testing.T) {
	assert.Equal(t, 50, Bin(50, 1000, 1000))
	assert.Equal(t, 10, Bin(50, 200, 1000))
	assert.Equal(t, 3, Bin(50, 64, 1000), "round(3.2)")
	assert.Equal(t, 0, Bin(50, 64, 0))
}

func TestTHD(t *testing.T) {
	const fs, n = 1000, 1000
	pure := MagnitudeSpectrum(sine(100, 50, fs, n))
	assert.InDelta(t, 0.0, THD(pure, Bin(50, n, fs)), 1e-9)

	distorted := sine(100, 50, fs, n)
	third := sine(20, 150, fs, n)
	for i := range distorted {
		distorted[i] += third[i]
	}
	spec := MagnitudeSpectrum(distorted)
	assert.InDelta(t, 0.2, THD(spec, Bin(50, n, fs)), 1e-9)
}

func TestTHDGuards(t *testing.T) {
	spec := MagnitudeSpectrum(make([]float64, 100))
	assert.Equal(t, 0.0, THD(spec, 5), "zero fundamental")
	assert.Equal(t, 0.0, THD(spec, 500), "bin out of range")
	assert.Equal(t, 0.0, THD(nil, 0))
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(1, 0))
	assert.Equal(t, 2.0, SafeDiv(4, 2))
}
