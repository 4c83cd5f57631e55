package domain

import (
	"context"
	"time"
)

// PolicyRepository defines per-guild policy data access
type PolicyRepository interface {
	Upsert(ctx context.Context, policy *ServerPolicy) error
	FindByGuild(ctx context.Context, guildID string) (*ServerPolicy, error)
}

// RecordRepository defines verification record data access.
//
// Update compares expectToken against the stored token as well as the
// primary key, so a writer holding a superseded record fails with
// ErrTokenMismatch instead of clobbering the newer one.
type RecordRepository interface {
	Create(ctx context.Context, record *VerificationRecord) error
	FindOpen(ctx context.Context, userID, guildID string) (*VerificationRecord, error)
	FindOpenByToken(ctx context.Context, userID, token string) (*VerificationRecord, error)
	FindOpenByUser(ctx context.Context, userID string) (*VerificationRecord, error)
	FindLatest(ctx context.Context, userID, guildID string) (*VerificationRecord, error)
	Update(ctx context.Context, record *VerificationRecord, expectToken string) error
}

// VerificationService is the single authority over what "verified"
// means for a (user, guild) pair.
type VerificationService interface {
	Start(ctx context.Context, userID, guildID string) (*StartResult, error)
	MarkStep(ctx context.Context, userID, token string, step VerificationStep) (*VerificationRecord, bool, error)
	RequestSMSCode(ctx context.Context, userID, token, phone, country string) error
	VerifySMSCode(ctx context.Context, userID, token, code string) (bool, error)
	Finalize(ctx context.Context, userID, guildID, token string) (*RoleGrant, error)
	Status(ctx context.Context, userID, guildID string) (*PendingStatus, error)
	RecordForToken(ctx context.Context, userID, token, remoteIP string) (*VerificationRecord, *ServerPolicy, error)
}

// PolicyService defines guild policy setup and lookup
type PolicyService interface {
	Setup(ctx context.Context, policy *ServerPolicy) (*ServerPolicy, error)
	Get(ctx context.Context, guildID string) (*ServerPolicy, error)
}

// TokenService defines verification credential generation
type TokenService interface {
	GenerateToken() (string, error)
	GenerateCode() (string, error)
	HashPhone(number string) string
}

// CaptchaVerifier checks a captcha widget response with the provider.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

// NotificationService delivers verification codes to users' phones.
type NotificationService interface {
	SendVerificationCode(to, code string, ttl time.Duration) error
}

// RoleGranter is the platform boundary: role assignment, role lookup
// and direct messages against the chat platform.
type RoleGranter interface {
	Grant(ctx context.Context, grant *RoleGrant) error
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	SendDM(ctx context.Context, userID, message string) error
}
