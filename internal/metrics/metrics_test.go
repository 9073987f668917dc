package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePrediction(t *testing.T) {
	before := testutil.ToFloat64(predictionsTotal.WithLabelValues("LINE_BREAK", "critical", "rules"))
	ObservePrediction("LINE_BREAK", "critical", "rules", 1.5)
	after := testutil.ToFloat64(predictionsTotal.WithLabelValues("LINE_BREAK", "critical", "rules"))
	assert.Equal(t, before+1, after)
}

func TestCounters(t *testing.T) {
	invalid := testutil.ToFloat64(invalidWindowsTotal)
	InvalidWindow()
	assert.Equal(t, invalid+1, testutil.ToFloat64(invalidWindowsTotal))

	dropped := testutil.ToFloat64(droppedWindowsTotal)
	DroppedWindows(3)
	assert.Equal(t, dropped+3, testutil.ToFloat64(droppedWindowsTotal))

	sink := testutil.ToFloat64(sinkErrorsTotal.WithLabelValues("redis"))
	SinkError("redis")
	assert.Equal(t, sink+1, testutil.ToFloat64(sinkErrorsTotal.WithLabelValues("redis")))
}

func TestSetModelReady(t *testing.T) {
	SetModelReady(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(modelReady))
	SetModelReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(modelReady))
}
