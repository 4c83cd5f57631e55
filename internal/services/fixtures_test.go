package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/verifybot/domain"
	"github.com/you/verifybot/internal/infrastructure/repositories"
	"github.com/you/verifybot/internal/mocks"
)

// verificationFixture bundles a verification service with its
// collaborators so tests can reach through to the stores and mocks.
type verificationFixture struct {
	svc      domain.VerificationService
	policies *repositories.MemoryPolicyRepository
	records  *repositories.MemoryRecordRepository
	notifier *mocks.MockNotificationService
	granter  *mocks.MockRoleGranter
}

// newVerificationFixture creates a service over the in-memory store
// backend. redisClient may be nil; without it resend throttling is off.
func newVerificationFixture(t *testing.T, redisClient *redis.Client) *verificationFixture {
	t.Helper()

	f := &verificationFixture{
		policies: repositories.NewMemoryPolicyRepository(),
		records:  repositories.NewMemoryRecordRepository(),
		notifier: mocks.NewMockNotificationService(),
		granter:  mocks.NewMockRoleGranter(),
	}
	f.svc = NewVerificationService(
		f.policies,
		f.records,
		NewTokenService("test-secret"),
		f.notifier,
		f.granter,
		redisClient,
		VerificationConfig{
			BaseURL:      "http://localhost:3000",
			CodeTTL:      5 * time.Minute,
			ResendWindow: 0,
		},
	)
	return f
}

// seedPolicy stores a policy for the test guild
func (f *verificationFixture) seedPolicy(t *testing.T, policy *domain.ServerPolicy) {
	t.Helper()
	if err := f.policies.Upsert(context.Background(), policy); err != nil {
		t.Fatalf("failed to seed policy: %v", err)
	}
}

// openRecord fetches the current open record for the pair
func (f *verificationFixture) openRecord(t *testing.T, userID, guildID string) *domain.VerificationRecord {
	t.Helper()
	record, err := f.records.FindOpen(context.Background(), userID, guildID)
	if err != nil {
		t.Fatalf("failed to fetch open record: %v", err)
	}
	return record
}

// expireRecord force-expires the open record for the pair
func (f *verificationFixture) expireRecord(t *testing.T, userID, guildID string) {
	t.Helper()
	record := f.openRecord(t, userID, guildID)
	record.ExpiresAt = time.Now().UTC().Add(-1 * time.Minute)
	if err := f.records.Update(context.Background(), record, record.Token); err != nil {
		t.Fatalf("failed to expire record: %v", err)
	}
}

// testPolicy creates a policy requiring both steps
func testPolicy(guildID string) *domain.ServerPolicy {
	return &domain.ServerPolicy{
		GuildID:          guildID,
		VerifiedRoleID:   "role-verified",
		HumanRoleID:      "role-human",
		RequireRecaptcha: true,
		RequireSMS:       true,
		WelcomeMessage:   "Welcome aboard!",
		TimeoutMinutes:   30,
		MaxAttempts:      3,
	}
}
