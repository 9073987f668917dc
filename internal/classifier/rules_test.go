package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

func TestRuleStrategyPriority(t *testing.T) {
	tests := []struct {
		name string
		f    models.ExtractedFeatures
		want models.FaultType
	}{
		{
			name: "line break",
			f:    models.ExtractedFeatures{CurrentDropRatio: 0.9, VoltageDropRatio: 0.35},
			want: models.FaultLineBreak,
		},
		{
			name: "line break wins over short circuit",
			f:    models.ExtractedFeatures{CurrentDropRatio: 0.9, VoltageDropRatio: 0.35, CurrentUnbalance: 80, NegSeqCurrent: 40},
			want: models.FaultLineBreak,
		},
		{
			name: "short circuit",
			f:    models.ExtractedFeatures{CurrentUnbalance: 80, NegSeqCurrent: 40},
			want: models.FaultShortCircuit,
		},
		{
			name: "short circuit wins over overload",
			f:    models.ExtractedFeatures{CurrentUnbalance: 80, NegSeqCurrent: 40, THDCurrentR: 0.5, CurrentDropRatio: 0.3},
			want: models.FaultShortCircuit,
		},
		{
			name: "overload",
			f:    models.ExtractedFeatures{THDCurrentR: 0.5, CurrentDropRatio: 0.3},
			want: models.FaultOverload,
		},
		{
			name: "current drop on threshold is not a break",
			f:    models.ExtractedFeatures{CurrentDropRatio: 0.6, VoltageDropRatio: 0.5},
			want: models.FaultNormal,
		},
		{
			name: "unbalance without negative sequence",
			f:    models.ExtractedFeatures{CurrentUnbalance: 80, NegSeqCurrent: 10},
			want: models.FaultNormal,
		},
		{
			name: "distortion without drop",
			f:    models.ExtractedFeatures{THDCurrentR: 0.9},
			want: models.FaultNormal,
		},
		{
			name: "zero features",
			f:    models.ExtractedFeatures{},
			want: models.FaultNormal,
		},
	}
	rules := NewRuleStrategy(FixedJitter(0))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, confidence := rules.Classify(tt.f)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, RuleBand(tt.want).Lo, confidence)
		})
	}
}

func TestRuleConfidenceStaysInBand(t *testing.T) {
	rules := NewRuleStrategy(NewSeededJitter(42))
	inputs := map[models.FaultType]models.ExtractedFeatures{
		models.FaultLineBreak:    {CurrentDropRatio: 0.9, VoltageDropRatio: 0.35},
		models.FaultShortCircuit: {CurrentUnbalance: 80, NegSeqCurrent: 40},
		models.FaultOverload:     {THDCurrentR: 0.5, CurrentDropRatio: 0.3},
		models.FaultNormal:       {},
	}
	for ft, f := range inputs {
		band := RuleBand(ft)
		for i := 0; i < 500; i++ {
			got, confidence := rules.Classify(f)
			require.Equal(t, ft, got)
			require.GreaterOrEqual(t, confidence, band.Lo)
			require.LessOrEqual(t, confidence, band.Hi)
		}
	}
}

func TestSeededJitterIsReproducible(t *testing.T) {
	a, b := NewSeededJitter(7), NewSeededJitter(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(models.ExtractedFeatures{}), b.Next(models.ExtractedFeatures{}))
	}
}

func TestHashJitterDependsOnlyOnInput(t *testing.T) {
	f := models.ExtractedFeatures{RMSCurrentR: 12.5, CurrentDropRatio: 0.7}
	j := HashJitter{}
	first := j.Next(f)
	assert.Equal(t, first, j.Next(f))
	assert.GreaterOrEqual(t, first, 0.0)
	assert.Less(t, first, 1.0)

	f.RMSCurrentR = 12.6
	assert.NotEqual(t, first, j.Next(f))
}

func TestFixedJitterClamps(t *testing.T) {
	assert.Equal(t, 0.0, FixedJitter(-3).Next(models.ExtractedFeatures{}))
	assert.Less(t, FixedJitter(1).Next(models.ExtractedFeatures{}), 1.0)
}

func TestParseJitter(t *testing.T) {
	for kind, want := range map[string]any{
		"":       HashJitter{},
		"random": RandomJitter{},
		"hashed": HashJitter{},
		"fixed":  FixedJitter(0.5),
	} {
		got, err := ParseJitter(kind, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "kind %q", kind)
	}

	seeded, err := ParseJitter("SEEDED", 1)
	require.NoError(t, err)
	assert.IsType(t, &SeededJitter{}, seeded)

	_, err = ParseJitter("gaussian", 1)
	assert.Error(t, err)
}
