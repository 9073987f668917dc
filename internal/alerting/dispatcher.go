// Package alerting turns detected fault events into operator alerts.
package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Alert is the payload published for one fault event
type Alert struct {
	ID                  string           `json:"id"`
	EventID             string           `json:"eventId"`
	FeederID            string           `json:"feederId"`
	SubstationID        string           `json:"substationId"`
	FaultType           models.FaultType `json:"faultType"`
	Severity            models.Severity  `json:"severity"`
	Confidence          float64          `json:"confidence"`
	EstimatedLocationKm float64          `json:"estimatedLocationKm"`
	Recipients          []string         `json:"recipients"`
	Message             string           `json:"message"`
	RaisedAt            time.Time        `json:"raisedAt"`
}

// Dispatcher delivers alerts for fault events
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.FaultEvent) error
}

// Publisher sends a keyed payload to the alert channel
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaDispatcher publishes alerts keyed by feeder so one feeder's alerts stay ordered
type KafkaDispatcher struct {
	publisher   Publisher
	minSeverity models.Severity
	recipients  map[models.Severity][]string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewKafkaDispatcher builds a dispatcher from the alerting configuration
func NewKafkaDispatcher(cfg config.AlertingConfig, publisher Publisher, logger zerolog.Logger) *KafkaDispatcher {
	recipients := make(map[models.Severity][]string, len(cfg.Recipients))
	for tier, roles := range cfg.Recipients {
		recipients[models.Severity(strings.ToLower(tier))] = roles
	}

	minSeverity := models.Severity(strings.ToLower(cfg.MinSeverity))
	if minSeverity == "" {
		minSeverity = models.SeverityLow
	}

	return &KafkaDispatcher{
		publisher:   publisher,
		minSeverity: minSeverity,
		recipients:  recipients,
		logger:      logger.With().Str("component", "alert_dispatcher").Logger(),
		now:         time.Now,
	}
}

// ShouldAlert reports whether the severity reaches the configured floor
func (d *KafkaDispatcher) ShouldAlert(sev models.Severity) bool {
	return sev.Rank() >= d.minSeverity.Rank()
}

// Recipients returns the roles notified for a severity tier
func (d *KafkaDispatcher) Recipients(sev models.Severity) []string {
	return d.recipients[sev]
}

// Dispatch publishes an alert unless the event is below the severity floor
func (d *KafkaDispatcher) Dispatch(ctx context.Context, event models.FaultEvent) error {
	if !d.ShouldAlert(event.Severity) {
		d.logger.Debug().Str("event_id", event.ID).Str("severity", string(event.Severity)).Msg("below alert threshold")
		return nil
	}

	alert := d.build(event)
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	if err := d.publisher.Publish(ctx, event.FeederID, payload); err != nil {
		return fmt.Errorf("dispatch alert %s: %w", alert.ID, err)
	}

	d.logger.Info().
		Str("alert_id", alert.ID).
		Str("feeder_id", event.FeederID).
		Str("fault_type", string(event.FaultType)).
		Str("severity", string(event.Severity)).
		Strs("recipients", alert.Recipients).
		Msg("alert dispatched")
	return nil
}

func (d *KafkaDispatcher) build(event models.FaultEvent) Alert {
	return Alert{
		ID:                  uuid.NewString(),
		EventID:             event.ID,
		FeederID:            event.FeederID,
		SubstationID:        event.SubstationID,
		FaultType:           event.FaultType,
		Severity:            event.Severity,
		Confidence:          event.Confidence,
		EstimatedLocationKm: event.EstimatedLocationKm,
		Recipients:          d.Recipients(event.Severity),
		Message:             renderMessage(event),
		RaisedAt:            d.now().UTC(),
	}
}

func renderMessage(event models.FaultEvent) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[%s] %s", strings.ToUpper(string(event.Severity)), event.FaultType))
	if event.FeederID != "" {
		builder.WriteString(fmt.Sprintf(" on feeder %s", event.FeederID))
	}
	if event.SubstationID != "" {
		builder.WriteString(fmt.Sprintf(" (substation %s)", event.SubstationID))
	}
	builder.WriteString(fmt.Sprintf(", confidence %.2f, approx %.1f km from substation", event.Confidence, event.EstimatedLocationKm))
	return builder.String()
}
