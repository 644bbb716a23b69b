package kafka

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/config"
)

func TestTopicName(t *testing.T) {
	tests := []struct {
		prefix    string
		eventType string
		want      string
	}{
		{prefix: "", eventType: "session.terminated", want: "session.terminated"},
		{prefix: "gatekeeper", eventType: "session.terminated", want: "gatekeeper.session.terminated"},
		{prefix: "gatekeeper", eventType: "gatekeeper.session.terminated", want: "gatekeeper.session.terminated"},
	}

	for _, tt := range tests {
		p := &Producer{cfg: config.KafkaSettings{TopicPrefix: tt.prefix}}
		if got := p.TopicName(tt.eventType); got != tt.want {
			t.Errorf("TopicName(%q) with prefix %q = %q, want %q", tt.eventType, tt.prefix, got, tt.want)
		}
	}
}

func TestStubPublisherAcceptsEvents(t *testing.T) {
	publisher := NewStubPublisher(zaptest.NewLogger(t))
	ctx := context.Background()

	err := publisher.PublishSessionTerminated(ctx, domain.SessionTerminatedEvent{
		SessionID:    "sess-1",
		Username:     "alice",
		Kind:         domain.ViolationAccountRemoved,
		TerminatedAt: time.Now(),
	})
	if err != nil {
		t.Errorf("PublishSessionTerminated: %v", err)
	}

	err = publisher.PublishDirectoryChanged(ctx, domain.DirectoryChangedEvent{
		Kind:     domain.DirectoryChangeDeleted,
		Username: "alice",
	})
	if err != nil {
		t.Errorf("PublishDirectoryChanged: %v", err)
	}
}
