package processor

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/metrics"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// periodic runs flush on an interval until stopped
type periodic struct {
	interval time.Duration
	done     chan struct{}
	finished chan struct{}
}

func startPeriodic(interval time.Duration, flush func()) *periodic {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	p := &periodic{
		interval: interval,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go func() {
		defer close(p.finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				flush()
			case <-p.done:
				return
			}
		}
	}()
	return p
}

func (p *periodic) stop() {
	close(p.done)
	<-p.finished
}

// faultCountAggregator counts verdicts by fault type
type faultCountAggregator struct {
	client TimeSeriesWriter
	logger zerolog.Logger
	counts map[models.FaultType]int
	mutex  sync.Mutex
	ticker *periodic
}

func newFaultCountAggregator(client TimeSeriesWriter, interval time.Duration, logger zerolog.Logger) *faultCountAggregator {
	a := &faultCountAggregator{
		client: client,
		logger: logger,
		counts: make(map[models.FaultType]int),
	}

	// Start periodic flusher
	a.ticker = startPeriodic(interval, a.flush)

	return a
}

func (a *faultCountAggregator) update(result models.PredictionResult) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.counts[result.FaultType]++
}

func (a *faultCountAggregator) flush() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.flushLocked()
}

func (a *faultCountAggregator) flushLocked() {
	if len(a.counts) == 0 {
		return
	}

	counts := a.snapshotLocked()
	if err := a.client.WriteFaultCounts(counts, time.Now()); err != nil {
		metrics.SinkError(SinkTimeSeries)
		a.logger.Error().Err(err).Msg("error writing fault counts")
		return
	}

	a.counts = make(map[models.FaultType]int)
}

// snapshotLocked lists counts in fault type declaration order
func (a *faultCountAggregator) snapshotLocked() []models.FaultCount {
	counts := make([]models.FaultCount, 0, len(a.counts))
	for _, ft := range models.FaultTypes {
		if n, ok := a.counts[ft]; ok {
			counts = append(counts, models.FaultCount{FaultType: ft, Count: n})
		}
	}
	return counts
}

func (a *faultCountAggregator) stop() {
	a.ticker.stop()
	a.flush()
}

// feederAggregator summarises detected faults per feeder
type feederAggregator struct {
	client  TimeSeriesWriter
	logger  zerolog.Logger
	feeders map[string]*feederStats
	mutex   sync.Mutex
	ticker  *periodic
}

type feederStats struct {
	faultCount    int
	worstSeverity models.Severity
	totalKm       float64
	maxConfidence float64
}

func newFeederAggregator(client TimeSeriesWriter, interval time.Duration, logger zerolog.Logger) *feederAggregator {
	a := &feederAggregator{
		client:  client,
		logger:  logger,
		feeders: make(map[string]*feederStats),
	}

	// Start periodic flusher
	a.ticker = startPeriodic(interval, a.flush)

	return a
}

func (a *feederAggregator) update(feederID string, result models.PredictionResult) {
	if feederID == "" {
		feederID = "unknown"
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	stats, exists := a.feeders[feederID]
	if !exists {
		stats = &feederStats{worstSeverity: result.Severity}
		a.feeders[feederID] = stats
	}

	stats.faultCount++
	stats.totalKm += result.EstimatedLocationKm
	if result.Severity.Rank() > stats.worstSeverity.Rank() {
		stats.worstSeverity = result.Severity
	}
	if result.Confidence > stats.maxConfidence {
		stats.maxConfidence = result.Confidence
	}
}

func (a *feederAggregator) flush() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.flushLocked()
}

func (a *feederAggregator) flushLocked() {
	if len(a.feeders) == 0 {
		return
	}

	stats := a.snapshotLocked()
	if err := a.client.WriteFeederStats(stats, time.Now()); err != nil {
		metrics.SinkError(SinkTimeSeries)
		a.logger.Error().Err(err).Msg("error writing feeder stats")
		return
	}

	a.feeders = make(map[string]*feederStats)
}

// snapshotLocked lists feeders sorted by ID
func (a *feederAggregator) snapshotLocked() []models.FeederFaultStats {
	out := make([]models.FeederFaultStats, 0, len(a.feeders))
	for id, s := range a.feeders {
		out = append(out, models.FeederFaultStats{
			FeederID:      id,
			FaultCount:    s.faultCount,
			WorstSeverity: s.worstSeverity,
			AvgLocationKm: s.totalKm / float64(s.faultCount),
			MaxConfidence: s.maxConfidence,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeederID < out[j].FeederID })
	return out
}

func (a *feederAggregator) stop() {
	a.ticker.stop()
	a.flush()
}
