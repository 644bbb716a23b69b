package port

import (
	"context"

	"github.com/agrisense/gatekeeper/internal/core/domain"
)

// DirectoryStore reads and writes the shared account directory. Load must
// fail open: a corrupt or missing payload yields an empty directory, never
// an error that would stall the watchdog loop.
type DirectoryStore interface {
	Load(ctx context.Context) ([]domain.UserRecord, error)
	Save(ctx context.Context, users []domain.UserRecord) error
}

// LegacyStore accesses the deprecated single-account credential pair.
// Load fails open to a zero LegacyUser on corrupt or missing state.
type LegacyStore interface {
	Load(ctx context.Context) (domain.LegacyUser, error)
	Save(ctx context.Context, user domain.LegacyUser) error
}

// PolicyStore accesses the optional access policy. Load returns nil both
// when no policy is configured and when the stored payload cannot be
// parsed. Save(nil) clears the policy.
type PolicyStore interface {
	Load(ctx context.Context) (*domain.AccessPolicy, error)
	Save(ctx context.Context, policy *domain.AccessPolicy) error
}

// SessionStore tracks the state of every live session.
type SessionStore interface {
	Put(ctx context.Context, session domain.SessionState) error
	Get(ctx context.Context, sessionID string) (*domain.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]domain.SessionState, error)
}
