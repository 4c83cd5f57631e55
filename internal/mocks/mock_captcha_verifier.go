package mocks

import "context"

// MockCaptchaVerifier implements domain.CaptchaVerifier for testing
type MockCaptchaVerifier struct {
	VerifyFunc func(ctx context.Context, response, remoteIP string) (bool, error)
}

// NewMockCaptchaVerifier creates a new MockCaptchaVerifier with default behaviors
func NewMockCaptchaVerifier() *MockCaptchaVerifier {
	return &MockCaptchaVerifier{}
}

// Verify checks a captcha response
func (m *MockCaptchaVerifier) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, response, remoteIP)
	}
	// Default behavior: accepted
	return true, nil
}
