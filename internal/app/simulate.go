package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/kafka"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/simulate"
)

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	FaultType    models.FaultType
	Count        int
	FeederID     string
	SubstationID string
	Noise        float64
	Seed         uint64
	// Publish sends the windows to the waveform topic instead of printing them
	Publish bool
	Out     io.Writer
}

// Simulate synthesizes waveform messages carrying a fault signature.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	messages := SimulatedMessages(opts, time.Now().UTC())

	if !opts.Publish {
		enc := json.NewEncoder(opts.Out)
		for _, msg := range messages {
			if err := enc.Encode(msg); err != nil {
				return err
			}
		}
		return nil
	}

	producer, err := kafka.NewProducer("simulator", a.Config.Kafka.Brokers, a.Config.Kafka.Topic)
	if err != nil {
		return err
	}
	defer producer.Close()

	for _, msg := range messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal waveform message: %w", err)
		}
		if err := producer.Publish(ctx, msg.FeederID, payload); err != nil {
			return err
		}
	}

	a.Logger.Info().Int("messages", len(messages)).Str("fault_type", string(opts.FaultType)).
		Str("topic", producer.Topic()).Msg("simulated windows published")
	return nil
}

// SimulatedMessages renders opts.Count windows. Seeds advance per window so noisy windows differ.
func SimulatedMessages(opts SimulateOptions, capturedAt time.Time) []models.WaveformMessage {
	count := opts.Count
	if count <= 0 {
		count = 1
	}

	messages := make([]models.WaveformMessage, 0, count)
	for i := 0; i < count; i++ {
		profile := simulate.Preset(opts.FaultType)
		profile.Noise = opts.Noise
		profile.Seed = opts.Seed + uint64(i)

		messages = append(messages, models.WaveformMessage{
			WindowID:     uuid.NewString(),
			FeederID:     opts.FeederID,
			SubstationID: opts.SubstationID,
			CapturedAt:   capturedAt.Add(time.Duration(i) * time.Second),
			Window:       simulate.Generate(profile),
		})
	}
	return messages
}
