// Package dsp holds the numeric primitives used by the feature extractor:
// RMS, peak, magnitude spectrum, THD and standardized moments.
//
// Every ratio returns 0 instead of NaN or Inf when its denominator vanishes.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RMS returns sqrt(mean(x^2)), 0 for an empty slice
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// Peak returns max(|x|)
func Peak(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// MeanProduct returns mean(a[i]*b[i]). Both slices must have the same length.
func MeanProduct(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return floats.Dot(a, b) / float64(len(a))
}

// SafeDiv returns num/den, or 0 when den is 0
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Edges returns the leading and trailing fraction of x. The slice length is
// floor(len(x)*fraction) but never less than one sample, so short windows
// still yield a defined slice.
func Edges(x []float64, fraction float64) (head, tail []float64) {
	n := len(x)
	if n == 0 {
		return nil, nil
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return x[:k], x[n-k:]
}

// DropRatio compares the RMS of the first and last fraction of x:
// (initial - final) / initial, 0 when the initial RMS is 0.
func DropRatio(x []float64, fraction float64) float64 {
	head, tail := Edges(x, fraction)
	initial := RMS(head)
	return SafeDiv(initial-RMS(tail), initial)
}

// Unbalance returns (max - min) / max * 100 over the given magnitudes
func Unbalance(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	hi, lo := floats.Max(values), floats.Min(values)
	return SafeDiv(hi-lo, hi) * 100
}

// Moments returns the skewness and excess kurtosis of x, both as population
// standardized moments. A constant signal yields (0, 0).
func Moments(x []float64) (skewness, kurtosis float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if std <= 1e-12*math.Max(1, math.Abs(mean)) {
		return 0, 0
	}
	skewness = stat.Moment(3, x, nil) / math.Pow(std, 3)
	kurtosis = stat.Moment(4, x, nil)/math.Pow(std, 4) - 3
	return skewness, kurtosis
}
