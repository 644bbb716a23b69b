package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// PolicyService manages the access window on behalf of the admin surface.
// Writes are validated; a degenerate window (start == end) is rejected
// rather than stored as "open all day".
type PolicyService struct {
	policy port.PolicyStore
	logger *zap.Logger
}

// NewPolicyService constructs a PolicyService.
func NewPolicyService(policy port.PolicyStore, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{policy: policy, logger: logger}
}

// Get returns the active policy, or nil when none is configured.
func (s *PolicyService) Get(ctx context.Context) (*domain.AccessPolicy, error) {
	return s.policy.Load(ctx)
}

// Set validates and stores the policy.
func (s *PolicyService) Set(ctx context.Context, policy domain.AccessPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	if err := s.policy.Save(ctx, &policy); err != nil {
		return fmt.Errorf("save policy: %w", err)
	}

	s.logger.Info("access policy updated",
		zap.String("start", policy.Start),
		zap.String("end", policy.End),
	)
	return nil
}

// Clear removes the policy, lifting all window restrictions.
func (s *PolicyService) Clear(ctx context.Context) error {
	if err := s.policy.Save(ctx, nil); err != nil {
		return fmt.Errorf("clear policy: %w", err)
	}
	s.logger.Info("access policy cleared")
	return nil
}
