package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// ErrInvalidModel is returned when a model or scaler artifact is inconsistent
var ErrInvalidModel = errors.New("classifier: invalid model artifact")

// Scaler standardizes feature vectors with per-feature mean and std
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform returns (x - mean) / std. A missing or zero std counts as 1 and
// a missing mean as 0.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		mean, std := 0.0, 1.0
		if i < len(s.Mean) {
			mean = s.Mean[i]
		}
		if i < len(s.Std) && s.Std[i] != 0 {
			std = s.Std[i]
		}
		out[i] = (v - mean) / std
	}
	return out
}

// SoftmaxModel is a multinomial logistic-regression artifact: one weight row
// and bias per class over the standardized feature vector
type SoftmaxModel struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Validate checks the artifact dimensions against the feature vector
func (m *SoftmaxModel) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(m.Weights) != len(m.Classes) || len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("%w: %d classes, %d weight rows, %d biases", ErrInvalidModel, len(m.Classes), len(m.Weights), len(m.Bias))
	}
	seen := make(map[string]bool, len(m.Classes))
	for i, c := range m.Classes {
		if _, err := models.ParseFaultType(c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate class %s", ErrInvalidModel, c)
		}
		seen[c] = true
		if len(m.Weights[i]) != models.FeatureCount {
			return fmt.Errorf("%w: class %s has %d weights, want %d", ErrInvalidModel, c, len(m.Weights[i]), models.FeatureCount)
		}
	}
	return nil
}

// Probabilities returns the class distribution indexed like models.FaultTypes.
// Classes the artifact does not know get probability 0. A NaN logit counts as
// -Inf. When the largest logit is infinite, the classes sharing it split the mass.
func (m *SoftmaxModel) Probabilities(x []float64) [4]float64 {
	logits := make([]float64, len(m.Classes))
	maxLogit := math.Inf(-1)
	for c := range m.Classes {
		z := m.Bias[c] + floats.Dot(m.Weights[c], x)
		if math.IsNaN(z) {
			z = math.Inf(-1)
		}
		logits[c] = z
		maxLogit = math.Max(maxLogit, z)
	}

	sum := 0.0
	for c, z := range logits {
		switch {
		case !math.IsInf(maxLogit, 0):
			logits[c] = math.Exp(z - maxLogit)
		case z == maxLogit:
			logits[c] = 1
		default:
			logits[c] = 0
		}
		sum += logits[c]
	}

	var probs [4]float64
	for c, label := range m.Classes {
		ft, _ := models.ParseFaultType(label)
		probs[faultIndex(ft)] = logits[c] / sum
	}
	return probs
}

// ModelStrategy classifies with a loaded model and scaler. Both are read-only
// after construction.
type ModelStrategy struct {
	model  *SoftmaxModel
	scaler *Scaler
}

// NewModelStrategy wraps a validated model. A nil scaler is the identity.
func NewModelStrategy(model *SoftmaxModel, scaler *Scaler) (*ModelStrategy, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if scaler == nil {
		scaler = &Scaler{}
	}
	return &ModelStrategy{model: model, scaler: scaler}, nil
}

func (m *ModelStrategy) Name() string { return StrategyModel }

// Classify returns the most probable class and its probability. Ties go to
// the first class in declaration order.
func (m *ModelStrategy) Classify(f models.ExtractedFeatures) (models.FaultType, float64) {
	probs := m.model.Probabilities(m.scaler.Transform(f.Vector()))
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return models.FaultTypes[best], probs[best]
}

// LoadModelStrategy reads the model and scaler artifacts from disk
func LoadModelStrategy(modelPath, scalerPath string) (*ModelStrategy, error) {
	var model SoftmaxModel
	if err := readJSON(modelPath, &model); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	var scaler *Scaler
	if scalerPath != "" {
		scaler = &Scaler{}
		if err := readJSON(scalerPath, scaler); err != nil {
			return nil, fmt.Errorf("load scaler: %w", err)
		}
	}

	return NewModelStrategy(&model, scaler)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func faultIndex(ft models.FaultType) int {
	for i, t := range models.FaultTypes {
		if t == ft {
			return i
		}
	}
	return 0
}
