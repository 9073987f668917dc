package app

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/alerting"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/broadcast"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/httpapi"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/influxdb"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/kafka"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/processor"
)

const consumerShutdownTimeout = 30 * time.Second

// Run executes the long-running detection service until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine, err := a.NewEngine()
	if err != nil {
		return err
	}

	var (
		sinks   processor.Sinks
		closers []func()
	)
	// Closers run in reverse so sinks outlive the processor that feeds them
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	if a.Config.InfluxDB.Enabled {
		influxClient, err := influxdb.NewClient(ctx, a.Config.InfluxDB, a.Logger)
		if err != nil {
			return fmt.Errorf("create InfluxDB client: %w", err)
		}
		sinks.TimeSeries = influxClient
		closers = append(closers, func() {
			a.Logger.Info().Msg("closing InfluxDB client")
			influxClient.Close()
		})
	} else {
		a.Logger.Warn().Msg("influxdb disabled; verdicts are not recorded")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	var events httpapi.EventRepository
	if store != nil {
		sinks.Events = store
		events = store
		closers = append(closers, closeStore)
	} else {
		a.Logger.Warn().Msg("database.dsn not configured; fault events are not persisted")
	}

	var lastEvents httpapi.LastEventReader
	if a.Config.Redis.Addr != "" {
		broadcaster, err := broadcast.NewRedisBroadcaster(ctx, a.Config.Redis, a.Logger)
		if err != nil {
			return err
		}
		sinks.Broadcast = broadcaster
		lastEvents = broadcaster
		closers = append(closers, func() { _ = broadcaster.Close() })
	}

	if a.Config.Alerting.Enabled && a.Config.Kafka.AlertTopic != "" {
		producer, err := kafka.NewProducer("fault-alerts", a.Config.Kafka.Brokers, a.Config.Kafka.AlertTopic)
		if err != nil {
			return fmt.Errorf("create alert producer: %w", err)
		}
		sinks.Alerts = alerting.NewKafkaDispatcher(a.Config.Alerting, producer, a.Logger)
		closers = append(closers, func() { _ = producer.Close() })
	}

	proc := processor.NewProcessor(engine, sinks, a.Config.Processor, a.Logger)

	var server *httpapi.Server
	if a.Config.HTTP.Enabled {
		server = httpapi.NewServer(a.Config.HTTP, engine, events, lastEvents, a.Logger)
		go func() {
			if err := server.Start(); err != nil {
				a.Logger.Error().Err(err).Msg("http server failed")
				cancel()
			}
		}()
	}

	// Start consumers
	var wg sync.WaitGroup
	a.Logger.Info().Int("consumers", a.Config.Kafka.ConsumerCount).Str("topic", a.Config.Kafka.Topic).Msg("starting Kafka consumers")
	for i := 0; i < a.Config.Kafka.ConsumerCount; i++ {
		consumer, err := kafka.NewConsumer(fmt.Sprintf("consumer-%d", i), a.Config.Kafka, proc.ProcessMessages, a.Logger)
		if err != nil {
			cancel()
			wg.Wait()
			proc.Stop()
			return fmt.Errorf("create consumer %d: %w", i, err)
		}

		wg.Add(1)
		go func(c *kafka.Consumer, id int) {
			defer wg.Done()
			if err := c.Consume(ctx); err != nil {
				a.Logger.Error().Err(err).Int("consumer", id).Msg("consumer stopped with error")
			}
		}(consumer, i)
	}

	// Wait for termination signal
	<-ctx.Done()
	a.Logger.Info().Msg("shutting down")

	// Create a channel to signal when all consumers are done
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.Logger.Info().Msg("all consumers stopped")
	case <-time.After(consumerShutdownTimeout):
		a.Logger.Warn().Msg("consumer shutdown timed out")
	}

	proc.Stop()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn().Err(err).Msg("http server shutdown")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
