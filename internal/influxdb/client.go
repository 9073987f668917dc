package influxdb

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Measurement names
const (
	MeasurementPredictions = "fault_predictions"
	MeasurementFaultCounts = "fault_counts"
	MeasurementFeeder      = "feeder_faults"
)

// Client represents an InfluxDB v2 client
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	config   config.InfluxDBConfig
	logger   zerolog.Logger
	done     chan struct{}
}

// NewClient initializes the InfluxDB v2 client and verifies connectivity
func NewClient(ctx context.Context, cfg config.InfluxDBConfig, logger zerolog.Logger) (*Client, error) {
	opts := influxdb2.DefaultOptions()
	if cfg.BatchSize > 0 {
		opts.SetBatchSize(uint(cfg.BatchSize))
	}
	if cfg.BatchTimeout > 0 {
		opts.SetFlushInterval(uint(cfg.BatchTimeout.Milliseconds()))
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	// Add a health check to verify credentials
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to InfluxDB: %w", err)
	}
	if health != nil && health.Status != domain.HealthCheckStatusPass {
		client.Close()
		return nil, fmt.Errorf("InfluxDB unhealthy: status %s", health.Status)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		config:   cfg,
		logger:   logger.With().Str("component", "influxdb").Logger(),
		done:     make(chan struct{}),
	}
	go c.logErrors(c.writeAPI.Errors())

	c.logger.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("connected to InfluxDB")
	return c, nil
}

// logErrors reports asynchronous write failures of the non-blocking write API
func (c *Client) logErrors(errs <-chan error) {
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.logger.Error().Err(err).Msg("write failed")
		case <-c.done:
			return
		}
	}
}

// WritePrediction writes one verdict together with its feature vector
func (c *Client) WritePrediction(msg models.WaveformMessage, result models.PredictionResult) error {
	c.writeAPI.WritePoint(predictionPoint(msg, result, time.Now()))
	return nil
}

// WriteFaultCounts writes aggregated verdict counts per fault type
func (c *Client) WriteFaultCounts(counts []models.FaultCount, timestamp time.Time) error {
	for _, count := range counts {
		point := write.NewPoint(
			MeasurementFaultCounts,
			map[string]string{
				"fault_type": string(count.FaultType),
			},
			map[string]interface{}{
				"count": count.Count,
			},
			timestamp,
		)

		c.writeAPI.WritePoint(point)
	}

	return nil
}

// WriteFeederStats writes aggregated fault activity per feeder
func (c *Client) WriteFeederStats(stats []models.FeederFaultStats, timestamp time.Time) error {
	for _, s := range stats {
		c.writeAPI.WritePoint(feederPoint(s, timestamp))
	}

	return nil
}

// Close flushes pending points and closes the InfluxDB client
func (c *Client) Close() {
	c.client.Close()
	close(c.done)
}

func predictionPoint(msg models.WaveformMessage, result models.PredictionResult, now time.Time) *write.Point {
	ts := msg.CapturedAt
	if ts.IsZero() {
		ts = now
	}

	fields := map[string]interface{}{
		"fault_detected": result.FaultDetected,
		"confidence":     result.Confidence,
		"location_km":    result.EstimatedLocationKm,
		"detection_ms":   result.DetectionTimeMs,
	}
	for i, v := range result.Features.Vector() {
		fields[models.FeatureNames[i]] = v
	}

	return write.NewPoint(
		MeasurementPredictions,
		map[string]string{
			"feeder_id":     msg.FeederID,
			"substation_id": msg.SubstationID,
			"fault_type":    string(result.FaultType),
			"severity":      string(result.Severity),
			"strategy":      result.Strategy,
		},
		fields,
		ts,
	)
}

func feederPoint(s models.FeederFaultStats, timestamp time.Time) *write.Point {
	return write.NewPoint(
		MeasurementFeeder,
		map[string]string{
			"feeder_id": s.FeederID,
		},
		map[string]interface{}{
			"fault_count":     s.FaultCount,
			"worst_severity":  string(s.WorstSeverity),
			"avg_location_km": s.AvgLocationKm,
			"max_confidence":  s.MaxConfidence,
		},
		timestamp,
	)
}
