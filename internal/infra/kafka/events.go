package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	eventTypeSessionTerminated = "session.terminated"
	eventTypeDirectoryChanged  = "directory.changed"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Username  string           `json:"username,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, username string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Username:  username,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishSessionTerminated publishes gatekeeper.session.terminated events.
func (p *EventPublisher) PublishSessionTerminated(ctx context.Context, event domain.SessionTerminatedEvent) error {
	return p.publish(ctx, eventTypeSessionTerminated, event.Username, event.TerminatedAt, event)
}

// PublishDirectoryChanged publishes gatekeeper.directory.changed events.
func (p *EventPublisher) PublishDirectoryChanged(ctx context.Context, event domain.DirectoryChangedEvent) error {
	return p.publish(ctx, eventTypeDirectoryChanged, event.Username, event.ChangedAt, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
