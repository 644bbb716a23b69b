package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/repository"
)

// SessionRepository implements port.SessionStore, one key per session.
type SessionRepository struct {
	store  port.StateStore
	logger *zap.Logger
}

// NewSessionRepository wires a session repository onto the supplied store.
func NewSessionRepository(store port.StateStore, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{store: store, logger: logger}
}

// Put stores the session under its own key.
func (r *SessionRepository) Put(ctx context.Context, session domain.SessionState) error {
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.store.Set(ctx, SessionKeyPrefix+session.ID, string(raw)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the session or repository.ErrNotFound. A corrupt payload is
// treated as absent: partial state must never be mistaken for "logged in".
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	raw, ok, err := r.store.Get(ctx, SessionKeyPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	var session domain.SessionState
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		r.logger.Warn("corrupt session payload, treating as absent",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

// Delete removes the session key. Deleting an absent session is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Delete(ctx, SessionKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns a snapshot of all live sessions, skipping corrupt entries.
func (r *SessionRepository) List(ctx context.Context) ([]domain.SessionState, error) {
	entries, err := r.store.List(ctx, SessionKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.SessionState, 0, len(entries))
	for key, raw := range entries {
		var session domain.SessionState
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			r.logger.Warn("skipping corrupt session payload", zap.String("key", key), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
