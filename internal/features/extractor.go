// Package features turns a three-phase waveform window into the fixed set of
// scalar features consumed by the fault classifier.
package features

import (
	"fmt"
	"math"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/dsp"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

const (
	// DefaultNominalFrequencyHz is the grid frequency THD and deviation are measured against
	DefaultNominalFrequencyHz = 50.0

	// dropFraction is the share of the window compared at each end for drop ratios
	dropFraction = 0.1
)

// Extractor computes ExtractedFeatures. It holds only configuration and is
// safe for concurrent use.
type Extractor struct {
	nominalHz float64
}

// NewExtractor creates an extractor for the given nominal grid frequency
func NewExtractor(nominalHz float64) *Extractor {
	if nominalHz <= 0 {
		nominalHz = DefaultNominalFrequencyHz
	}
	return &Extractor{nominalHz: nominalHz}
}

// NominalFrequency returns the configured nominal grid frequency
func (e *Extractor) NominalFrequency() float64 {
	return e.nominalHz
}

// phaseStats are the per-signal values several feature groups share
type phaseStats struct {
	rms  float64
	peak float64
	thd  float64
	spec []float64
}

// Extract computes the features of one window. It fails only when the window
// violates its invariant.
func (e *Extractor) Extract(w models.WaveformWindow) (models.ExtractedFeatures, error) {
	if err := w.Validate(); err != nil {
		return models.ExtractedFeatures{}, fmt.Errorf("extract features: %w", err)
	}

	n, fs := w.Len(), w.SamplingRateHz
	fundamentalBin := dsp.Bin(e.nominalHz, n, fs)
	stats := func(x []float64) phaseStats {
		spec := dsp.MagnitudeSpectrum(x)
		return phaseStats{
			rms:  dsp.RMS(x),
			peak: dsp.Peak(x),
			thd:  dsp.THD(spec, fundamentalBin),
			spec: spec,
		}
	}

	iR, iY, iB := stats(w.CurrentR), stats(w.CurrentY), stats(w.CurrentB)
	vR, vY, vB := stats(w.VoltageR), stats(w.VoltageY), stats(w.VoltageB)

	var f models.ExtractedFeatures

	f.RMSCurrentR, f.RMSCurrentY, f.RMSCurrentB = iR.rms, iY.rms, iB.rms
	f.RMSVoltageR, f.RMSVoltageY, f.RMSVoltageB = vR.rms, vY.rms, vB.rms

	f.PeakCurrentR, f.PeakCurrentY, f.PeakCurrentB = iR.peak, iY.peak, iB.peak
	f.PeakVoltageR, f.PeakVoltageY, f.PeakVoltageB = vR.peak, vY.peak, vB.peak

	f.THDCurrentR, f.THDCurrentY, f.THDCurrentB = iR.thd, iY.thd, iB.thd
	f.THDVoltageR, f.THDVoltageY, f.THDVoltageB = vR.thd, vY.thd, vB.thd

	f.PosSeqCurrent, f.NegSeqCurrent, f.ZeroSeqCurrent = SequenceComponents(iR.rms, iY.rms, iB.rms)
	f.PosSeqVoltage, f.NegSeqVoltage, f.ZeroSeqVoltage = SequenceComponents(vR.rms, vY.rms, vB.rms)

	f.ActivePowerR, f.ReactivePowerR = Power(w.CurrentR, w.VoltageR, iR.rms, vR.rms)
	f.ActivePowerY, f.ReactivePowerY = Power(w.CurrentY, w.VoltageY, iY.rms, vY.rms)
	f.ActivePowerB, f.ReactivePowerB = Power(w.CurrentB, w.VoltageB, iB.rms, vB.rms)

	f.Frequency = dsp.DominantFrequency(vR.spec, n, fs)
	f.FrequencyDeviation = math.Abs(f.Frequency - e.nominalHz)

	f.SkewnessCurrent, f.KurtosisCurrent = dsp.Moments(pool(w.CurrentR, w.CurrentY, w.CurrentB))
	f.SkewnessVoltage, f.KurtosisVoltage = dsp.Moments(pool(w.VoltageR, w.VoltageY, w.VoltageB))

	f.CurrentUnbalance = dsp.Unbalance(iR.rms, iY.rms, iB.rms)
	f.VoltageUnbalance = dsp.Unbalance(vR.rms, vY.rms, vB.rms)

	f.CurrentDropRatio = dsp.DropRatio(w.CurrentR, dropFraction)
	f.VoltageDropRatio = dsp.DropRatio(w.VoltageR, dropFraction)

	return f, nil
}

// SequenceComponents returns the simplified positive, negative and zero
// sequence magnitudes computed from per-phase RMS values. These are not the
// phasor decomposition; classifier thresholds are tuned against this form.
func SequenceComponents(r, y, b float64) (positive, negative, zero float64) {
	positive = math.Sqrt((r*r + y*y + b*b) / 3)
	negative = math.Abs(r-y) / 2
	zero = math.Abs(r+y+b) / 3
	return positive, negative, zero
}

// Power returns the active power mean(i*v) and the reactive power derived
// from apparent power. The radicand is clamped at zero.
func Power(current, voltage []float64, currentRMS, voltageRMS float64) (active, reactive float64) {
	active = dsp.MeanProduct(current, voltage)
	apparent := currentRMS * voltageRMS
	reactive = math.Sqrt(math.Max(0, apparent*apparent-active*active))
	return active, reactive
}

func pool(phases ...[]float64) []float64 {
	size := 0
	for _, p := range phases {
		size += len(p)
	}
	out := make([]float64, 0, size)
	for _, p := range phases {
		out = append(out, p...)
	}
	return out
}
