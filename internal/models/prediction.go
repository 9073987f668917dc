package models

import (
	"fmt"
	"time"
)

// FaultType is the class assigned to a waveform window
type FaultType string

// Fault classes in declaration order. Model outputs and tie-breaks follow this order.
const (
	FaultNormal       FaultType = "NORMAL"
	FaultLineBreak    FaultType = "LINE_BREAK"
	FaultShortCircuit FaultType = "SHORT_CIRCUIT"
	FaultOverload     FaultType = "OVERLOAD"
)

// FaultTypes lists every class in declaration order
var FaultTypes = []FaultType{FaultNormal, FaultLineBreak, FaultShortCircuit, FaultOverload}

// ParseFaultType maps a label to its FaultType
func ParseFaultType(s string) (FaultType, error) {
	for _, ft := range FaultTypes {
		if string(ft) == s {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown fault type %q", s)
}

// Severity tier derived from fault type and confidence
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (0) to critical (3)
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// PredictionResult is the verdict for one waveform window
type PredictionResult struct {
	FaultDetected       bool              `json:"faultDetected"`
	FaultType           FaultType         `json:"faultType"`
	Confidence          float64           `json:"confidence"`
	EstimatedLocationKm float64           `json:"estimatedLocationKm"`
	Severity            Severity          `json:"severity"`
	DetectionTimeMs     float64           `json:"detectionTimeMs"`
	Strategy            string            `json:"strategy"`
	Features            ExtractedFeatures `json:"features"`
}

// DetectionTime returns DetectionTimeMs as a duration
func (p PredictionResult) DetectionTime() time.Duration {
	return time.Duration(p.DetectionTimeMs * float64(time.Millisecond))
}
