package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/simulate"
)

func zeroWindow(n int) models.WaveformWindow {
	return models.WaveformWindow{
		CurrentR:        make([]float64, n),
		CurrentY:        make([]float64, n),
		CurrentB:        make([]float64, n),
		VoltageR:        make([]float64, n),
		VoltageY:        make([]float64, n),
		VoltageB:        make([]float64, n),
		SamplingRateHz:  1000,
		DurationSeconds: float64(n) / 1000,
	}
}

func TestExtractZeroSignal(t *testing.T) {
	f, err := NewExtractor(50).Extract(zeroWindow(200))
	require.NoError(t, err)

	for i, v := range f.Vector() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %s is not finite", models.FeatureNames[i])
	}
	assert.Zero(t, f.RMSCurrentR)
	assert.Zero(t, f.RMSVoltageB)
	assert.Zero(t, f.PeakCurrentY)
	assert.Zero(t, f.THDCurrentR)
	assert.Zero(t, f.THDVoltageR)
	assert.Zero(t, f.CurrentUnbalance)
	assert.Zero(t, f.VoltageUnbalance)
	assert.Zero(t, f.CurrentDropRatio)
	assert.Zero(t, f.VoltageDropRatio)
	assert.Zero(t, f.SkewnessCurrent)
	assert.Zero(t, f.KurtosisCurrent)
	assert.Zero(t, f.SkewnessVoltage)
	assert.Zero(t, f.KurtosisVoltage)
	assert.Zero(t, f.ReactivePowerR)
}

func TestExtractBalancedSinusoid(t *testing.T) {
	w := simulate.Generate(simulate.Preset(models.FaultNormal))
	f, err := NewExtractor(50).Extract(w)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, f.RMSCurrentR, 1e-6)
	assert.InDelta(t, 230.0, f.RMSVoltageY, 1e-6)
	assert.InDelta(t, 230*math.Sqrt2, f.PeakVoltageR, 1e-3)
	assert.InDelta(t, 50.0, f.Frequency, 1e-9)
	assert.InDelta(t, 0.0, f.FrequencyDeviation, 1e-9)
	assert.InDelta(t, 0.0, f.THDVoltageR, 1e-6)
	assert.InDelta(t, 0.0, f.CurrentUnbalance, 1e-6)
	assert.InDelta(t, 0.0, f.CurrentDropRatio, 1e-6)

	// balanced phases: positive sequence equals phase RMS, zero sequence is its mean
	assert.InDelta(t, 50.0, f.PosSeqCurrent, 1e-6)
	assert.InDelta(t, 0.0, f.NegSeqCurrent, 1e-6)
	assert.InDelta(t, 50.0, f.ZeroSeqCurrent, 1e-6)

	// P = Vrms*Irms*cos(phi), Q = Vrms*Irms*sin(phi)
	assert.InDelta(t, 230*50*math.Cos(0.3), f.ActivePowerR, 1e-3)
	assert.InDelta(t, 230*50*math.Sin(0.3), f.ReactivePowerR, 1e-3)
}

func TestExtractLineBreakDropRatios(t *testing.T) {
	w := simulate.Generate(simulate.Preset(models.FaultLineBreak))
	f, err := NewExtractor(50).Extract(w)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, f.CurrentDropRatio, 1e-6)
	assert.InDelta(t, 1-150.0/230.0, f.VoltageDropRatio, 1e-6)
}

func TestExtractShortCircuitUnbalance(t *testing.T) {
	w := simulate.Generate(simulate.Preset(models.FaultShortCircuit))
	f, err := NewExtractor(50).Extract(w)
	require.NoError(t, err)

	assert.InDelta(t, 90.0, f.CurrentUnbalance, 1e-6)
	assert.InDelta(t, 90.0, f.NegSeqCurrent, 1e-6)
	assert.InDelta(t, 80.0, f.ZeroSeqCurrent, 1e-6)
}

func TestExtractShortWindow(t *testing.T) {
	w := zeroWindow(5)
	for i := range w.CurrentR {
		w.CurrentR[i] = 10
	}
	w.CurrentR[4] = 4
	f, err := NewExtractor(50).Extract(w)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, f.CurrentDropRatio, 1e-12)
}

func TestExtractRejectsMalformedWindow(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *models.WaveformWindow)
		want   error
	}{
		{"length mismatch", func(w *models.WaveformWindow) { w.VoltageB = w.VoltageB[:10] }, models.ErrPhaseLengthMismatch},
		{"empty phase", func(w *models.WaveformWindow) { w.CurrentY = nil }, models.ErrEmptyPhase},
		{"zero sampling rate", func(w *models.WaveformWindow) { w.SamplingRateHz = 0 }, models.ErrInvalidSamplingRate},
		{"negative duration", func(w *models.WaveformWindow) { w.DurationSeconds = -1 }, models.ErrInvalidDuration},
		{"nan sample", func(w *models.WaveformWindow) { w.CurrentB[3] = math.NaN() }, models.ErrNonFiniteSample},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := zeroWindow(100)
			tt.mutate(&w)
			_, err := NewExtractor(50).Extract(w)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSequenceComponents(t *testing.T) {
	pos, neg, zero := SequenceComponents(10, 4, 1)
	assert.InDelta(t, math.Sqrt(117.0/3), pos, 1e-12)
	assert.InDelta(t, 3.0, neg, 1e-12)
	assert.InDelta(t, 5.0, zero, 1e-12)
}

func TestPowerClampsRadicand(t *testing.T) {
	// in-phase signals: apparent equals active, rounding must not yield NaN
	x := []float64{1, -1, 1, -1}
	active, reactive := Power(x, x, 1, 1)
	assert.InDelta(t, 1.0, active, 1e-12)
	assert.False(t, math.IsNaN(reactive))
	assert.InDelta(t, 0.0, reactive, 1e-6)
}

func TestNewExtractorDefaultsNominal(t *testing.T) {
	assert.Equal(t, DefaultNominalFrequencyHz, NewExtractor(0).NominalFrequency())
	assert.Equal(t, 60.0, NewExtractor(60).NominalFrequency())
}
