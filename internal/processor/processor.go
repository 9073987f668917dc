package processor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/alerting"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/broadcast"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/metrics"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Sink names used in logs and metrics
const (
	SinkTimeSeries = "influxdb"
	SinkEvents     = "postgres"
	SinkAlerts     = "alerts"
	SinkBroadcast  = "redis"
)

// Predictor turns a waveform window into a verdict
type Predictor interface {
	Predict(w models.WaveformWindow) (models.PredictionResult, error)
}

// TimeSeriesWriter receives every verdict plus periodic aggregates
type TimeSeriesWriter interface {
	WritePrediction(msg models.WaveformMessage, result models.PredictionResult) error
	WriteFaultCounts(counts []models.FaultCount, timestamp time.Time) error
	WriteFeederStats(stats []models.FeederFaultStats, timestamp time.Time) error
}

// EventStore persists detected faults
type EventStore interface {
	InsertEvent(ctx context.Context, event models.FaultEvent) error
}

// Sinks are the downstream collaborators. Nil members are skipped.
type Sinks struct {
	TimeSeries TimeSeriesWriter
	Events     EventStore
	Alerts     alerting.Dispatcher
	Broadcast  broadcast.Publisher
}

// Processor classifies incoming waveform windows on a worker pool
type Processor struct {
	engine       Predictor
	sinks        Sinks
	config       config.ProcessorConfig
	logger       zerolog.Logger
	queue        chan []models.WaveformMessage
	wg           sync.WaitGroup
	mu           sync.RWMutex // guards stopped and sends on queue
	stopped      bool
	stopOnce     sync.Once
	countAgg     *faultCountAggregator
	feederAgg    *feederAggregator
	aggregations bool
	now          func() time.Time
	newID        func() string
}

// NewProcessor creates a new processor and starts its workers
func NewProcessor(engine Predictor, sinks Sinks, cfg config.ProcessorConfig, logger zerolog.Logger) *Processor {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}

	p := &Processor{
		engine: engine,
		sinks:  sinks,
		config: cfg,
		logger: logger.With().Str("component", "processor").Logger(),
		queue:  make(chan []models.WaveformMessage, cfg.QueueSize),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	// Aggregates go to the time-series sink only
	if cfg.EnableAggregations && sinks.TimeSeries != nil {
		p.aggregations = true
		p.countAgg = newFaultCountAggregator(sinks.TimeSeries, cfg.AggregationInterval, p.logger)
		p.feederAgg = newFeederAggregator(sinks.TimeSeries, cfg.AggregationInterval, p.logger)
	}

	p.wg.Add(cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		go p.worker(i)
	}

	p.logger.Info().Int("workers", cfg.WorkerCount).Int("queue_size", cfg.QueueSize).
		Bool("aggregations", p.aggregations).Msg("processor started")
	return p
}

// ProcessMessages enqueues a batch of waveform messages. A full queue, or a
// stopped processor, drops the batch.
func (p *Processor) ProcessMessages(messages []models.WaveformMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		metrics.DroppedWindows(len(messages))
		p.logger.Warn().Int("messages", len(messages)).Msg("processor stopped, dropping messages")
		return nil
	}

	// Copy to avoid sharing the consumer's buffer
	batch := make([]models.WaveformMessage, len(messages))
	copy(batch, messages)

	select {
	case p.queue <- batch:
		return nil
	default:
		metrics.DroppedWindows(len(batch))
		p.logger.Warn().Int("messages", len(batch)).Msg("processing queue is full, dropping messages")
		return nil
	}
}

// worker classifies batches from the queue
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for batch := range p.queue {
		for _, msg := range batch {
			if _, err := p.Process(msg); err != nil {
				p.logger.Warn().Err(err).Int("worker", id).
					Str("window_id", msg.WindowID).
					Str("feeder_id", msg.FeederID).
					Msg("rejected waveform window")
			}
		}
	}
}

// Process classifies one window synchronously and fans the verdict out to the sinks.
// Sink failures are logged and counted but never change the verdict.
func (p *Processor) Process(msg models.WaveformMessage) (models.PredictionResult, error) {
	result, err := p.engine.Predict(msg.Window)
	if err != nil {
		metrics.InvalidWindow()
		return models.PredictionResult{}, err
	}
	metrics.ObservePrediction(string(result.FaultType), string(result.Severity), result.Strategy, result.DetectionTimeMs)

	if p.sinks.TimeSeries != nil {
		if err := p.sinks.TimeSeries.WritePrediction(msg, result); err != nil {
			p.sinkFailed(SinkTimeSeries, msg, err)
		}
	}

	if p.aggregations {
		p.countAgg.update(result)
		if result.FaultDetected {
			p.feederAgg.update(msg.FeederID, result)
		}
	}

	if !result.FaultDetected {
		return result, nil
	}

	event := p.newEvent(msg, result)
	p.logger.Info().
		Str("event_id", event.ID).
		Str("feeder_id", event.FeederID).
		Str("fault_type", string(event.FaultType)).
		Str("severity", string(event.Severity)).
		Float64("confidence", event.Confidence).
		Float64("location_km", event.EstimatedLocationKm).
		Dur("detection_time", result.DetectionTime()).
		Msg("fault detected")

	ctx, cancel := context.WithTimeout(context.Background(), p.config.SinkTimeout)
	defer cancel()

	if p.sinks.Events != nil {
		if err := p.sinks.Events.InsertEvent(ctx, event); err != nil {
			p.sinkFailed(SinkEvents, msg, err)
		}
	}
	if p.sinks.Alerts != nil {
		if err := p.sinks.Alerts.Dispatch(ctx, event); err != nil {
			p.sinkFailed(SinkAlerts, msg, err)
		}
	}
	if p.sinks.Broadcast != nil {
		if err := p.sinks.Broadcast.Publish(ctx, event); err != nil {
			p.sinkFailed(SinkBroadcast, msg, err)
		}
	}

	return result, nil
}

func (p *Processor) newEvent(msg models.WaveformMessage, result models.PredictionResult) models.FaultEvent {
	return models.FaultEvent{
		ID:                  p.newID(),
		WindowID:            msg.WindowID,
		FeederID:            msg.FeederID,
		SubstationID:        msg.SubstationID,
		FaultType:           result.FaultType,
		Severity:            result.Severity,
		Confidence:          result.Confidence,
		EstimatedLocationKm: result.EstimatedLocationKm,
		DetectionTimeMs:     result.DetectionTimeMs,
		Strategy:            result.Strategy,
		Status:              models.EventStatusDetected,
		CapturedAt:          msg.CapturedAt,
		DetectedAt:          p.now().UTC(),
	}
}

func (p *Processor) sinkFailed(sink string, msg models.WaveformMessage, err error) {
	metrics.SinkError(sink)
	p.logger.Error().Err(err).Str("sink", sink).Str("window_id", msg.WindowID).Msg("sink write failed")
}

// Stop drains the queue, waits for workers, and flushes the aggregators
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()

		// Final flush for aggregators
		if p.aggregations {
			p.countAgg.stop()
			p.feederAgg.stop()
		}
		p.logger.Info().Msg("processor stopped")
	})
}
