package port

import (
	"context"

	"github.com/agrisense/gatekeeper/internal/core/domain"
)

// AuditLog records watchdog terminations and directory mutations durably.
// Recording is best-effort from the caller's perspective; a failed write
// never blocks a termination.
type AuditLog interface {
	RecordTermination(ctx context.Context, event domain.SessionTerminatedEvent) error
	RecordDirectoryChange(ctx context.Context, event domain.DirectoryChangedEvent) error
}

// MessageInbox stores contact-admin messages.
type MessageInbox interface {
	Add(ctx context.Context, message domain.AdminMessage) error
	List(ctx context.Context, unreadOnly bool) ([]domain.AdminMessage, error)
	MarkRead(ctx context.Context, messageID string) error
}
