package classifier

import (
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Rule thresholds
const (
	lineBreakCurrentDrop = 0.6
	lineBreakVoltageDrop = 0.3

	shortCircuitUnbalance = 50.0
	shortCircuitNegSeq    = 10.0

	overloadTHD         = 0.3
	overloadCurrentDrop = 0.2
)

// Band is the confidence range a rule verdict falls in
type Band struct {
	Lo, Hi float64
}

// ruleBands maps every class to its confidence band
var ruleBands = map[models.FaultType]Band{
	models.FaultLineBreak:    {0.85, 1.0},
	models.FaultShortCircuit: {0.90, 1.0},
	models.FaultOverload:     {0.75, 0.90},
	models.FaultNormal:       {0.95, 1.0},
}

// RuleBand returns the confidence band of ft
func RuleBand(ft models.FaultType) Band {
	return ruleBands[ft]
}

// RuleStrategy is the threshold classifier used when no model is loaded.
// Rules are checked in priority order and the first match wins.
type RuleStrategy struct {
	jitter Jitter
}

// NewRuleStrategy creates a rule classifier. A nil jitter uses HashJitter so
// repeated calls on one window keep their confidence and severity tier.
func NewRuleStrategy(jitter Jitter) *RuleStrategy {
	if jitter == nil {
		jitter = HashJitter{}
	}
	return &RuleStrategy{jitter: jitter}
}

func (r *RuleStrategy) Name() string { return StrategyRules }

// Classify applies the rules to f
func (r *RuleStrategy) Classify(f models.ExtractedFeatures) (models.FaultType, float64) {
	ft := matchRule(f)
	band := ruleBands[ft]
	return ft, band.Lo + r.jitter.Next(f)*(band.Hi-band.Lo)
}

func matchRule(f models.ExtractedFeatures) models.FaultType {
	switch {
	case f.CurrentDropRatio > lineBreakCurrentDrop && f.VoltageDropRatio > lineBreakVoltageDrop:
		return models.FaultLineBreak
	case f.CurrentUnbalance > shortCircuitUnbalance && f.NegSeqCurrent > shortCircuitNegSeq:
		return models.FaultShortCircuit
	case f.THDCurrentR > overloadTHD && f.CurrentDropRatio > overloadCurrentDrop:
		return models.FaultOverload
	default:
		return models.FaultNormal
	}
}
