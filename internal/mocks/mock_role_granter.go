package mocks

import (
	"context"

	"github.com/you/verifybot/domain"
)

// MockRoleGranter implements domain.RoleGranter for testing
type MockRoleGranter struct {
	GrantFunc   func(ctx context.Context, grant *domain.RoleGrant) error
	HasRoleFunc func(ctx context.Context, guildID, userID, roleID string) (bool, error)
	SendDMFunc  func(ctx context.Context, userID, message string) error

	Grants []domain.RoleGrant
	DMs    []string
}

// NewMockRoleGranter creates a new MockRoleGranter with default behaviors
func NewMockRoleGranter() *MockRoleGranter {
	return &MockRoleGranter{}
}

// Grant records the grant and delegates to GrantFunc if set
func (m *MockRoleGranter) Grant(ctx context.Context, grant *domain.RoleGrant) error {
	m.Grants = append(m.Grants, *grant)
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, grant)
	}
	// Default behavior: success
	return nil
}

// HasRole reports whether the member holds the role
func (m *MockRoleGranter) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	if m.HasRoleFunc != nil {
		return m.HasRoleFunc(ctx, guildID, userID, roleID)
	}
	// Default behavior: not held
	return false, nil
}

// SendDM records the message and delegates to SendDMFunc if set
func (m *MockRoleGranter) SendDM(ctx context.Context, userID, message string) error {
	m.DMs = append(m.DMs, message)
	if m.SendDMFunc != nil {
		return m.SendDMFunc(ctx, userID, message)
	}
	// Default behavior: success
	return nil
}
