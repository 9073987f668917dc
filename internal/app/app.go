package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/classifier"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/metrics"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// NewEngine builds the classification engine from the engine settings.
func (a *App) NewEngine() (*classifier.Engine, error) {
	jitter, err := classifier.ParseJitter(a.Config.Engine.Jitter, a.Config.Engine.JitterSeed)
	if err != nil {
		return nil, err
	}

	engine := classifier.LoadEngine(classifier.Options{
		NominalFrequencyHz: a.Config.Engine.NominalFrequencyHz,
		ModelPath:          a.Config.Engine.ModelPath,
		ScalerPath:         a.Config.Engine.ScalerPath,
		Jitter:             jitter,
	}, a.Logger)
	metrics.SetModelReady(engine.Ready())
	return engine, nil
}

func (a *App) openStore(ctx context.Context) (*storage.EventStore, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewEventStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("prepare event store: %w", err)
	}
	return store, pool.Close, nil
}
