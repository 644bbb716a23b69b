package state

import (
	"context"
	"fmt"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// LegacyRepository implements port.LegacyStore over the two flattened legacy
// keys. The pair predates the directory and is stored as plain strings, not
// JSON.
type LegacyRepository struct {
	store port.StateStore
}

// NewLegacyRepository wires a legacy credential repository onto the store.
func NewLegacyRepository(store port.StateStore) *LegacyRepository {
	return &LegacyRepository{store: store}
}

// Load reads the legacy pair. Absent keys yield a zero LegacyUser. The two
// keys are read separately; there is no cross-key transaction, so a write
// racing between the reads can surface a torn pair. Callers tolerate that.
func (r *LegacyRepository) Load(ctx context.Context) (domain.LegacyUser, error) {
	username, _, err := r.store.Get(ctx, KeyLegacyUser)
	if err != nil {
		return domain.LegacyUser{}, fmt.Errorf("load legacy username: %w", err)
	}
	password, _, err := r.store.Get(ctx, KeyLegacyPass)
	if err != nil {
		return domain.LegacyUser{}, fmt.Errorf("load legacy password: %w", err)
	}

	return domain.LegacyUser{Username: username, Password: password}, nil
}

// Save mirrors the legacy pair back into the store as two sequential writes.
func (r *LegacyRepository) Save(ctx context.Context, user domain.LegacyUser) error {
	if err := r.store.Set(ctx, KeyLegacyUser, user.Username); err != nil {
		return fmt.Errorf("save legacy username: %w", err)
	}
	if err := r.store.Set(ctx, KeyLegacyPass, user.Password); err != nil {
		return fmt.Errorf("save legacy password: %w", err)
	}
	return nil
}

var _ port.LegacyStore = (*LegacyRepository)(nil)
