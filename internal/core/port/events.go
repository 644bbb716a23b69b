package port

import (
	"context"

	"github.com/agrisense/gatekeeper/internal/core/domain"
)

// EventPublisher delivers lifecycle events to interested consumers.
// PublishSessionTerminated is the notify-before-redirect contract: callers
// invoke it before clearing session state so the subject sees why it was
// logged out.
type EventPublisher interface {
	PublishSessionTerminated(ctx context.Context, event domain.SessionTerminatedEvent) error
	PublishDirectoryChanged(ctx context.Context, event domain.DirectoryChangedEvent) error
}
