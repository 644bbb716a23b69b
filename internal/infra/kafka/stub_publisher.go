package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, username string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("username", username),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishSessionTerminated logs session.terminated events.
func (p *StubPublisher) PublishSessionTerminated(_ context.Context, event domain.SessionTerminatedEvent) error {
	p.logEvent(eventTypeSessionTerminated, event.Username, event.TerminatedAt, event)
	return nil
}

// PublishDirectoryChanged logs directory.changed events.
func (p *StubPublisher) PublishDirectoryChanged(_ context.Context, event domain.DirectoryChangedEvent) error {
	p.logEvent(eventTypeDirectoryChanged, event.Username, event.ChangedAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
