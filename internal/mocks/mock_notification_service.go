package mocks

import "time"

// MockNotificationService implements domain.NotificationService for testing
type MockNotificationService struct {
	SendCodeFunc func(to, code string, ttl time.Duration) error

	SentCodes []SentCode
}

// SentCode records one SendVerificationCode call for assertions
type SentCode struct {
	To   string
	Code string
	TTL  time.Duration
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendVerificationCode records the code and delegates to SendCodeFunc if set
func (m *MockNotificationService) SendVerificationCode(to, code string, ttl time.Duration) error {
	m.SentCodes = append(m.SentCodes, SentCode{To: to, Code: code, TTL: ttl})
	if m.SendCodeFunc != nil {
		return m.SendCodeFunc(to, code, ttl)
	}
	// Default behavior: success
	return nil
}
