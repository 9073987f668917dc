// Package classifier turns extracted features into a fault verdict.
//
// An Engine wraps exactly one Strategy, chosen when it is built: the learned
// ModelStrategy when model artifacts load, the RuleStrategy otherwise. The
// strategy is never swapped afterwards, so Predict is safe for concurrent use.
package classifier

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/features"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Strategy names reported on every verdict
const (
	StrategyModel = "model"
	StrategyRules = "rules"
)

// Strategy classifies a feature set into a fault type with a confidence in [0, 1]
type Strategy interface {
	Name() string
	Classify(f models.ExtractedFeatures) (models.FaultType, float64)
}

// Options configure LoadEngine
type Options struct {
	NominalFrequencyHz float64
	ModelPath          string
	ScalerPath         string
	Jitter             Jitter
}

// Engine extracts features and classifies waveform windows
type Engine struct {
	extractor *features.Extractor
	strategy  Strategy
}

// NewEngine builds an engine around an explicit strategy
func NewEngine(extractor *features.Extractor, strategy Strategy) *Engine {
	if extractor == nil {
		extractor = features.NewExtractor(features.DefaultNominalFrequencyHz)
	}
	if strategy == nil {
		strategy = NewRuleStrategy(nil)
	}
	return &Engine{extractor: extractor, strategy: strategy}
}

// LoadEngine builds the engine at process start. A missing or broken model
// artifact is not fatal: the failure is logged once and the engine keeps the
// rule strategy for its whole lifetime.
func LoadEngine(opts Options, logger zerolog.Logger) *Engine {
	extractor := features.NewExtractor(opts.NominalFrequencyHz)
	logger = logger.With().Str("component", "classifier").
		Float64("nominal_frequency_hz", extractor.NominalFrequency()).Logger()

	if opts.ModelPath == "" {
		logger.Info().Msg("no model configured; using rule-based classifier")
		return NewEngine(extractor, NewRuleStrategy(opts.Jitter))
	}

	strategy, err := LoadModelStrategy(opts.ModelPath, opts.ScalerPath)
	if err != nil {
		logger.Warn().Err(err).Str("model_path", opts.ModelPath).Msg("model unavailable; falling back to rule-based classifier")
		return NewEngine(extractor, NewRuleStrategy(opts.Jitter))
	}

	logger.Info().Str("model", strategy.model.Name).Str("version", strategy.model.Version).Msg("model loaded")
	return NewEngine(extractor, strategy)
}

// Ready reports whether verdicts come from a learned model
func (e *Engine) Ready() bool {
	_, ok := e.strategy.(*ModelStrategy)
	return ok
}

// Mode returns the active strategy name
func (e *Engine) Mode() string {
	return e.strategy.Name()
}

// Extract computes the features of one window
func (e *Engine) Extract(w models.WaveformWindow) (models.ExtractedFeatures, error) {
	return e.extractor.Extract(w)
}

// Classify runs the active strategy, clamping the confidence into [0, 1]
func (e *Engine) Classify(f models.ExtractedFeatures) (models.FaultType, float64) {
	ft, confidence := e.strategy.Classify(f)
	if math.IsNaN(confidence) {
		confidence = 0
	}
	return ft, math.Min(math.Max(confidence, 0), 1)
}

// Predict extracts, classifies and derives location and severity for one window
func (e *Engine) Predict(w models.WaveformWindow) (models.PredictionResult, error) {
	start := time.Now()

	f, err := e.extractor.Extract(w)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("predict: %w", err)
	}

	ft, confidence := e.Classify(f)

	return models.PredictionResult{
		FaultDetected:       ft != models.FaultNormal,
		FaultType:           ft,
		Confidence:          confidence,
		EstimatedLocationKm: EstimateLocation(f),
		Severity:            SeverityFor(ft, confidence),
		DetectionTimeMs:     float64(time.Since(start)) / float64(time.Millisecond),
		Strategy:            e.strategy.Name(),
		Features:            f,
	}, nil
}
