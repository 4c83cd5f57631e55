package mocks

import (
	"context"

	"github.com/you/verifybot/domain"
)

// MockVerificationService implements domain.VerificationService for testing
type MockVerificationService struct {
	StartFunc          func(ctx context.Context, userID, guildID string) (*domain.StartResult, error)
	MarkStepFunc       func(ctx context.Context, userID, token string, step domain.VerificationStep) (*domain.VerificationRecord, bool, error)
	RequestSMSCodeFunc func(ctx context.Context, userID, token, phone, country string) error
	VerifySMSCodeFunc  func(ctx context.Context, userID, token, code string) (bool, error)
	FinalizeFunc       func(ctx context.Context, userID, guildID, token string) (*domain.RoleGrant, error)
	StatusFunc         func(ctx context.Context, userID, guildID string) (*domain.PendingStatus, error)
	RecordForTokenFunc func(ctx context.Context, userID, token, remoteIP string) (*domain.VerificationRecord, *domain.ServerPolicy, error)
}

// NewMockVerificationService creates a new MockVerificationService with default behaviors
func NewMockVerificationService() *MockVerificationService {
	return &MockVerificationService{}
}

// Start begins or restarts verification
func (m *MockVerificationService) Start(ctx context.Context, userID, guildID string) (*domain.StartResult, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, userID, guildID)
	}
	// Default behavior: no policy configured
	return nil, domain.ErrNoPolicy
}

// MarkStep marks a verification step complete
func (m *MockVerificationService) MarkStep(ctx context.Context, userID, token string, step domain.VerificationStep) (*domain.VerificationRecord, bool, error) {
	if m.MarkStepFunc != nil {
		return m.MarkStepFunc(ctx, userID, token, step)
	}
	// Default behavior: no record
	return nil, false, domain.ErrNoRecord
}

// RequestSMSCode issues an SMS code
func (m *MockVerificationService) RequestSMSCode(ctx context.Context, userID, token, phone, country string) error {
	if m.RequestSMSCodeFunc != nil {
		return m.RequestSMSCodeFunc(ctx, userID, token, phone, country)
	}
	// Default behavior: no record
	return domain.ErrNoRecord
}

// VerifySMSCode checks a submitted SMS code
func (m *MockVerificationService) VerifySMSCode(ctx context.Context, userID, token, code string) (bool, error) {
	if m.VerifySMSCodeFunc != nil {
		return m.VerifySMSCodeFunc(ctx, userID, token, code)
	}
	// Default behavior: no record
	return false, domain.ErrNoRecord
}

// Finalize completes verification and computes the role grant
func (m *MockVerificationService) Finalize(ctx context.Context, userID, guildID, token string) (*domain.RoleGrant, error) {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, userID, guildID, token)
	}
	// Default behavior: no record
	return nil, domain.ErrNoRecord
}

// Status reports verification progress
func (m *MockVerificationService) Status(ctx context.Context, userID, guildID string) (*domain.PendingStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID, guildID)
	}
	// Default behavior: not started
	return &domain.PendingStatus{State: domain.StateNotStarted}, nil
}

// RecordForToken resolves the record behind a verification link
func (m *MockVerificationService) RecordForToken(ctx context.Context, userID, token, remoteIP string) (*domain.VerificationRecord, *domain.ServerPolicy, error) {
	if m.RecordForTokenFunc != nil {
		return m.RecordForTokenFunc(ctx, userID, token, remoteIP)
	}
	// Default behavior: no record
	return nil, nil, domain.ErrNoRecord
}
