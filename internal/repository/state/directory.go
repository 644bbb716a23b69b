package state

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// DirectoryRepository implements port.DirectoryStore over the shared key space.
type DirectoryRepository struct {
	store  port.StateStore
	logger *zap.Logger
}

// NewDirectoryRepository wires a directory repository onto the supplied store.
func NewDirectoryRepository(store port.StateStore, logger *zap.Logger) *DirectoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryRepository{store: store, logger: logger}
}

// Load returns a snapshot of the directory. A missing key yields an empty
// directory; so does a corrupt payload, which is logged and skipped rather
// than surfaced (fail open on parse, fail closed on semantics).
func (r *DirectoryRepository) Load(ctx context.Context) ([]domain.UserRecord, error) {
	raw, ok, err := r.store.Get(ctx, KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	if !ok || raw == "" {
		return []domain.UserRecord{}, nil
	}

	var users []domain.UserRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		r.logger.Warn("corrupt directory payload, treating as empty", zap.Error(err))
		return []domain.UserRecord{}, nil
	}
	if users == nil {
		users = []domain.UserRecord{}
	}
	return users, nil
}

// Save writes back the full directory.
func (r *DirectoryRepository) Save(ctx context.Context, users []domain.UserRecord) error {
	if users == nil {
		users = []domain.UserRecord{}
	}

	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	if err := r.store.Set(ctx, KeyDirectory, string(raw)); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}
	return nil
}

var _ port.DirectoryStore = (*DirectoryRepository)(nil)
