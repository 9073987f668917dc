package classifier

import (
	"math"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Location bounds, in kilometres along the feeder
const (
	MinLocationKm = 0.5
	MaxLocationKm = 5.0

	locationScaleKm     = 2.5
	minCurrentDropRatio = 0.01
)

type severityStep struct {
	minConfidence float64
	severity      models.Severity
}

// severityTable lists thresholds highest first; the last step of each class
// catches everything below
var severityTable = map[models.FaultType][]severityStep{
	models.FaultShortCircuit: {
		{0.95, models.SeverityCritical},
		{0.85, models.SeverityHigh},
		{math.Inf(-1), models.SeverityMedium},
	},
	models.FaultLineBreak: {
		{0.90, models.SeverityCritical},
		{0.80, models.SeverityHigh},
		{0.70, models.SeverityMedium},
		{math.Inf(-1), models.SeverityLow},
	},
	models.FaultOverload: {
		{0.85, models.SeverityHigh},
		{0.70, models.SeverityMedium},
		{math.Inf(-1), models.SeverityLow},
	},
}

// SeverityFor maps a verdict to its severity tier. NORMAL is always low.
func SeverityFor(ft models.FaultType, confidence float64) models.Severity {
	for _, step := range severityTable[ft] {
		if confidence >= step.minConfidence {
			return step.severity
		}
	}
	return models.SeverityLow
}

// EstimateLocation returns the distance to the fault from the drop ratios,
// clamped to [MinLocationKm, MaxLocationKm]
func EstimateLocation(f models.ExtractedFeatures) float64 {
	raw := f.VoltageDropRatio / math.Max(f.CurrentDropRatio, minCurrentDropRatio) * locationScaleKm
	return math.Min(math.Max(raw, MinLocationKm), MaxLocationKm)
}
