package mocks

import (
	"context"

	"github.com/you/verifybot/domain"
)

// MockRecordRepository implements domain.RecordRepository for testing
type MockRecordRepository struct {
	CreateFunc          func(ctx context.Context, record *domain.VerificationRecord) error
	FindOpenFunc        func(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error)
	FindOpenByTokenFunc func(ctx context.Context, userID, token string) (*domain.VerificationRecord, error)
	FindOpenByUserFunc  func(ctx context.Context, userID string) (*domain.VerificationRecord, error)
	FindLatestFunc      func(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error)
	UpdateFunc          func(ctx context.Context, record *domain.VerificationRecord, expectToken string) error
}

// NewMockRecordRepository creates a new MockRecordRepository with default behaviors
func NewMockRecordRepository() *MockRecordRepository {
	return &MockRecordRepository{}
}

// Create stores a new record
func (m *MockRecordRepository) Create(ctx context.Context, record *domain.VerificationRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	// Default behavior: success
	return nil
}

// FindOpen finds the open record for a (user, guild) pair
func (m *MockRecordRepository) FindOpen(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	if m.FindOpenFunc != nil {
		return m.FindOpenFunc(ctx, userID, guildID)
	}
	// Default behavior: not found
	return nil, domain.ErrNoRecord
}

// FindOpenByToken finds a user's open record carrying the given token
func (m *MockRecordRepository) FindOpenByToken(ctx context.Context, userID, token string) (*domain.VerificationRecord, error) {
	if m.FindOpenByTokenFunc != nil {
		return m.FindOpenByTokenFunc(ctx, userID, token)
	}
	// Default behavior: not found
	return nil, domain.ErrNoRecord
}

// FindOpenByUser finds the newest open record for a user
func (m *MockRecordRepository) FindOpenByUser(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	if m.FindOpenByUserFunc != nil {
		return m.FindOpenByUserFunc(ctx, userID)
	}
	// Default behavior: not found
	return nil, domain.ErrNoRecord
}

// FindLatest finds the newest record for a (user, guild) pair
func (m *MockRecordRepository) FindLatest(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	if m.FindLatestFunc != nil {
		return m.FindLatestFunc(ctx, userID, guildID)
	}
	// Default behavior: not found
	return nil, domain.ErrNoRecord
}

// Update writes a record back, comparing the expected token
func (m *MockRecordRepository) Update(ctx context.Context, record *domain.VerificationRecord, expectToken string) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, record, expectToken)
	}
	// Default behavior: success
	return nil
}
