package models

import (
	"time"
)

// Fault event lifecycle statuses
const (
	EventStatusDetected     = "detected"
	EventStatusAcknowledged = "acknowledged"
	EventStatusResolved     = "resolved"
)

// FaultEvent is a detected fault as persisted, broadcast and alerted on
type FaultEvent struct {
	ID                  string    `json:"id"`
	WindowID            string    `json:"windowId"`
	FeederID            string    `json:"feederId"`
	SubstationID        string    `json:"substationId"`
	FaultType           FaultType `json:"faultType"`
	Severity            Severity  `json:"severity"`
	Confidence          float64   `json:"confidence"`
	EstimatedLocationKm float64   `json:"estimatedLocationKm"`
	DetectionTimeMs     float64   `json:"detectionTimeMs"`
	Strategy            string    `json:"strategy"`
	Status              string    `json:"status"`
	CapturedAt          time.Time `json:"capturedAt"`
	DetectedAt          time.Time `json:"detectedAt"`
}

// FaultCount represents aggregated count of verdicts by fault type
type FaultCount struct {
	FaultType FaultType `json:"fault_type"`
	Count     int       `json:"count"`
}

// FeederFaultStats represents aggregated fault activity on one feeder
type FeederFaultStats struct {
	FeederID      string   `json:"feeder_id"`
	FaultCount    int      `json:"fault_count"`
	WorstSeverity Severity `json:"worst_severity"`
	AvgLocationKm float64  `json:"avg_location_km"`
	MaxConfidence float64  `json:"max_confidence"`
}
