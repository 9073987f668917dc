// Package metrics exposes the detector's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridfault",
			Name:      "predictions_total",
			Help:      "Total number of waveform windows classified, by verdict.",
		},
		[]string{"fault_type", "severity", "strategy"},
	)

	invalidWindowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gridfault",
			Name:      "invalid_windows_total",
			Help:      "Total number of waveform windows rejected as malformed.",
		},
	)

	droppedWindowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gridfault",
			Name:      "dropped_windows_total",
			Help:      "Total number of waveform windows dropped because the processing queue was full.",
		},
	)

	sinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridfault",
			Name:      "sink_errors_total",
			Help:      "Total number of failed writes to downstream collaborators.",
		},
		[]string{"sink"},
	)

	detectionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gridfault",
			Name:      "detection_seconds",
			Help:      "Wall-clock time of feature extraction plus classification.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)

	modelReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gridfault",
			Name:      "model_ready",
			Help:      "1 when verdicts come from a learned model, 0 when from the rule-based classifier.",
		},
	)
)

func init() {
	// ignore duplicate registration in case of multiple imports
	_ = prometheus.Register(predictionsTotal)
	_ = prometheus.Register(invalidWindowsTotal)
	_ = prometheus.Register(droppedWindowsTotal)
	_ = prometheus.Register(sinkErrorsTotal)
	_ = prometheus.Register(detectionSeconds)
	_ = prometheus.Register(modelReady)
}

// ObservePrediction records one verdict and its detection time in milliseconds
func ObservePrediction(faultType, severity, strategy string, detectionMs float64) {
	predictionsTotal.WithLabelValues(faultType, severity, strategy).Inc()
	detectionSeconds.Observe(detectionMs / 1000)
}

// InvalidWindow counts a malformed window
func InvalidWindow() { invalidWindowsTotal.Inc() }

// DroppedWindows counts windows discarded on a full queue
func DroppedWindows(n int) { droppedWindowsTotal.Add(float64(n)) }

// SinkError counts a failed write to the named collaborator
func SinkError(sink string) { sinkErrorsTotal.WithLabelValues(sink).Inc() }

// SetModelReady publishes the engine readiness state
func SetModelReady(ready bool) {
	if ready {
		modelReady.Set(1)
		return
	}
	modelReady.Set(0)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
