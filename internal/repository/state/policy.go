package state

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// PolicyRepository implements port.PolicyStore over the shared key space.
type PolicyRepository struct {
	store  port.StateStore
	logger *zap.Logger
}

// NewPolicyRepository wires an access policy repository onto the store.
func NewPolicyRepository(store port.StateStore, logger *zap.Logger) *PolicyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyRepository{store: store, logger: logger}
}

// Load returns the configured policy, or nil when none is set. A corrupt
// payload also yields nil: an unreadable policy must never lock users out.
func (r *PolicyRepository) Load(ctx context.Context) (*domain.AccessPolicy, error) {
	raw, ok, err := r.store.Get(ctx, KeyAccessPolicy)
	if err != nil {
		return nil, fmt.Errorf("load access policy: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var policy domain.AccessPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		r.logger.Warn("corrupt access policy payload, treating as unset", zap.Error(err))
		return nil, nil
	}
	return &policy, nil
}

// Save stores the policy, or clears it when nil.
func (r *PolicyRepository) Save(ctx context.Context, policy *domain.AccessPolicy) error {
	if policy == nil {
		if err := r.store.Delete(ctx, KeyAccessPolicy); err != nil {
			return fmt.Errorf("clear access policy: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode access policy: %w", err)
	}
	if err := r.store.Set(ctx, KeyAccessPolicy, string(raw)); err != nil {
		return fmt.Errorf("save access policy: %w", err)
	}
	return nil
}

var _ port.PolicyStore = (*PolicyRepository)(nil)
