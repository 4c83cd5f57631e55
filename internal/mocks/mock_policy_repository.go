package mocks

import (
	"context"

	"github.com/you/verifybot/domain"
)

// MockPolicyRepository implements domain.PolicyRepository for testing
type MockPolicyRepository struct {
	UpsertFunc      func(ctx context.Context, policy *domain.ServerPolicy) error
	FindByGuildFunc func(ctx context.Context, guildID string) (*domain.ServerPolicy, error)

	UpsertCalls int
}

// NewMockPolicyRepository creates a new MockPolicyRepository with default behaviors
func NewMockPolicyRepository() *MockPolicyRepository {
	return &MockPolicyRepository{}
}

// Upsert stores a policy
func (m *MockPolicyRepository) Upsert(ctx context.Context, policy *domain.ServerPolicy) error {
	m.UpsertCalls++
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, policy)
	}
	// Default behavior: success
	return nil
}

// FindByGuild finds a policy by guild ID
func (m *MockPolicyRepository) FindByGuild(ctx context.Context, guildID string) (*domain.ServerPolicy, error) {
	if m.FindByGuildFunc != nil {
		return m.FindByGuildFunc(ctx, guildID)
	}
	// Default behavior: not found
	return nil, domain.ErrNoPolicy
}
