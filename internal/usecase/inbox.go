package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// ErrEmptyMessage indicates a contact-admin submission without a body.
var ErrEmptyMessage = errors.New("message body is required")

// InboxService lets customers leave messages for the administrator.
type InboxService struct {
	inbox  port.MessageInbox
	logger *zap.Logger
	now    func() time.Time
}

// NewInboxService constructs an InboxService.
func NewInboxService(inbox port.MessageInbox, logger *zap.Logger) *InboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxService{
		inbox:  inbox,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *InboxService) WithClock(clock func() time.Time) *InboxService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Submit stores a new message from the supplied user.
func (s *InboxService) Submit(ctx context.Context, username, text string) (*domain.AdminMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message := domain.AdminMessage{
		ID:        uuid.NewString(),
		Username:  username,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.inbox.Add(ctx, message); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	return &message, nil
}

// List returns messages for the administrator, newest first.
func (s *InboxService) List(ctx context.Context, unreadOnly bool) ([]domain.AdminMessage, error) {
	return s.inbox.List(ctx, unreadOnly)
}

// MarkRead flags one message as handled.
func (s *InboxService) MarkRead(ctx context.Context, messageID string) error {
	return s.inbox.MarkRead(ctx, messageID)
}
