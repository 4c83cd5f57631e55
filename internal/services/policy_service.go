package services

import (
	"context"
	"fmt"
	"time"

	"github.com/you/verifybot/domain"
)

const defaultWelcomeMessage = "Welcome! You have been verified."

const (
	minTimeoutMinutes = 5
	maxTimeoutMinutes = 1440
)

// PolicyServiceImpl implements domain.PolicyService
type PolicyServiceImpl struct {
	policies domain.PolicyRepository
}

// NewPolicyService creates a new policy service
func NewPolicyService(policies domain.PolicyRepository) domain.PolicyService {
	return &PolicyServiceImpl{policies: policies}
}

// Setup validates and persists a guild's verification policy. The
// guild's implicit everyone role shares the guild's own ID, and
// granting it would make every member "verified", so it is rejected
// before anything is written.
func (s *PolicyServiceImpl) Setup(ctx context.Context, policy *domain.ServerPolicy) (*domain.ServerPolicy, error) {
	if policy.GuildID == "" {
		return nil, fmt.Errorf("%w: guild id is required", domain.ErrInvalidPolicy)
	}
	if policy.VerifiedRoleID == "" {
		return nil, fmt.Errorf("%w: verified_role is required", domain.ErrInvalidPolicy)
	}
	if policy.VerifiedRoleID == policy.GuildID {
		return nil, fmt.Errorf("%w: verified_role cannot be the everyone role", domain.ErrInvalidPolicy)
	}
	if policy.HumanRoleID == policy.GuildID {
		return nil, fmt.Errorf("%w: human_role cannot be the everyone role", domain.ErrInvalidPolicy)
	}

	if policy.WelcomeMessage == "" {
		policy.WelcomeMessage = defaultWelcomeMessage
	}
	if policy.TimeoutMinutes == 0 {
		policy.TimeoutMinutes = defaultTimeoutMinutes
	}
	if policy.TimeoutMinutes < minTimeoutMinutes || policy.TimeoutMinutes > maxTimeoutMinutes {
		return nil, fmt.Errorf("%w: timeout must be between %d and %d minutes",
			domain.ErrInvalidPolicy, minTimeoutMinutes, maxTimeoutMinutes)
	}
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = defaultMaxAttempts
	}

	policy.UpdatedAt = time.Now().UTC()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = policy.UpdatedAt
	}

	if err := s.policies.Upsert(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Get implements domain.PolicyService
func (s *PolicyServiceImpl) Get(ctx context.Context, guildID string) (*domain.ServerPolicy, error) {
	return s.policies.FindByGuild(ctx, guildID)
}
