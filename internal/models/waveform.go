package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Contract errors returned when a waveform window is malformed
var (
	ErrEmptyPhase          = errors.New("waveform: phase has no samples")
	ErrPhaseLengthMismatch = errors.New("waveform: phase lengths differ")
	ErrInvalidSamplingRate = errors.New("waveform: sampling rate must be positive")
	ErrInvalidDuration     = errors.New("waveform: duration must be positive")
	ErrNonFiniteSample     = errors.New("waveform: sample is NaN or infinite")
)

// WaveformWindow is one fault-evaluation unit of three-phase samples
type WaveformWindow struct {
	CurrentR        []float64 `json:"currentR"`
	CurrentY        []float64 `json:"currentY"`
	CurrentB        []float64 `json:"currentB"`
	VoltageR        []float64 `json:"voltageR"`
	VoltageY        []float64 `json:"voltageY"`
	VoltageB        []float64 `json:"voltageB"`
	SamplingRateHz  int       `json:"samplingRateHz"`
	DurationSeconds float64   `json:"durationSeconds"`
}

// Len returns the per-phase sample count
func (w WaveformWindow) Len() int {
	return len(w.CurrentR)
}

// Validate checks the window invariant. All six phases must be non-empty,
// equally long and finite, and the sampling parameters must be positive.
func (w WaveformWindow) Validate() error {
	if w.SamplingRateHz <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSamplingRate, w.SamplingRateHz)
	}
	if !(w.DurationSeconds > 0) || math.IsInf(w.DurationSeconds, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidDuration, w.DurationSeconds)
	}

	phases := w.phases()
	want := len(w.CurrentR)
	for _, p := range phases {
		if len(p.samples) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyPhase, p.name)
		}
		if len(p.samples) != want {
			return fmt.Errorf("%w: %s has %d samples, currentR has %d", ErrPhaseLengthMismatch, p.name, len(p.samples), want)
		}
		for i, v := range p.samples {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s[%d]", ErrNonFiniteSample, p.name, i)
			}
		}
	}
	return nil
}

type namedPhase struct {
	name    string
	samples []float64
}

func (w WaveformWindow) phases() []namedPhase {
	return []namedPhase{
		{"currentR", w.CurrentR},
		{"currentY", w.CurrentY},
		{"currentB", w.CurrentB},
		{"voltageR", w.VoltageR},
		{"voltageY", w.VoltageY},
		{"voltageB", w.VoltageB},
	}
}

// WaveformMessage is the envelope published by the ingestion layer
type WaveformMessage struct {
	WindowID     string         `json:"windowId"`
	FeederID     string         `json:"feederId"`
	SubstationID string         `json:"substationId"`
	CapturedAt   time.Time      `json:"capturedAt"`
	Window       WaveformWindow `json:"window"`
}
