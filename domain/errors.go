package domain

import "errors"

// Policy errors
var (
	ErrNoPolicy      = errors.New("guild has no verification policy")
	ErrInvalidPolicy = errors.New("invalid verification policy")
)

// Verification record errors
var (
	ErrAlreadyVerified = errors.New("user already verified")
	ErrNoRecord        = errors.New("no open verification record")
	ErrTokenMismatch   = errors.New("verification token mismatch")
	ErrRecordExpired   = errors.New("verification record has expired")
	ErrNotComplete     = errors.New("required verification steps not complete")
)

// SMS errors
var (
	ErrMaxAttempts     = errors.New("maximum sms attempts exceeded")
	ErrNoPendingCode   = errors.New("no sms code outstanding")
	ErrCodeExpired     = errors.New("sms code has expired")
	ErrResendThrottled = errors.New("sms resend window has not elapsed")
)

// Infrastructure errors
var (
	ErrStoreUnavailable = errors.New("verification store unavailable")
	ErrRoleGrantFailed  = errors.New("role grant failed")
	ErrCaptchaRejected  = errors.New("captcha response rejected")
)
