package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/you/verifybot/domain"
)

const (
	defaultTimeoutMinutes = 30
	defaultMaxAttempts    = 3
)

// VerificationConfig holds tunables for the verification lifecycle
type VerificationConfig struct {
	BaseURL      string
	CodeTTL      time.Duration
	ResendWindow time.Duration
}

// VerificationServiceImpl implements domain.VerificationService. It is
// the only writer of record status flags and CompletedAt.
type VerificationServiceImpl struct {
	policies    domain.PolicyRepository
	records     domain.RecordRepository
	tokens      domain.TokenService
	notifier    domain.NotificationService
	granter     domain.RoleGranter
	redisClient *redis.Client
	config      VerificationConfig
}

// NewVerificationService creates the verification state machine.
// redisClient is optional; without it SMS resend throttling is skipped.
func NewVerificationService(
	policies domain.PolicyRepository,
	records domain.RecordRepository,
	tokens domain.TokenService,
	notifier domain.NotificationService,
	granter domain.RoleGranter,
	redisClient *redis.Client,
	config VerificationConfig,
) domain.VerificationService {
	if config.CodeTTL <= 0 {
		config.CodeTTL = 5 * time.Minute
	}
	return &VerificationServiceImpl{
		policies:    policies,
		records:     records,
		tokens:      tokens,
		notifier:    notifier,
		granter:     granter,
		redisClient: redisClient,
		config:      config,
	}
}

// Start implements domain.VerificationService. An open record for the
// pair is reissued (new token, later expiry, attempts reset) rather
// than duplicated; the old token dies with the reissue.
func (s *VerificationServiceImpl) Start(ctx context.Context, userID, guildID string) (*domain.StartResult, error) {
	policy, err := s.policies.FindByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if policy.VerifiedRoleID != "" {
		has, err := s.granter.HasRole(ctx, guildID, userID, policy.VerifiedRoleID)
		if err != nil {
			// Role lookup is advisory; the grant itself is still gated
			// by record completion.
			log.Printf("verification: role lookup failed for user %s in guild %s: %v", userID, guildID, err)
		} else if has {
			return nil, domain.ErrAlreadyVerified
		}
	}

	token, err := s.tokens.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(timeoutMinutes(policy)) * time.Minute)

	record, err := s.records.FindOpen(ctx, userID, guildID)
	switch {
	case err == nil:
		oldToken := record.Token
		// ExpiresAt must strictly increase across reissues even if the
		// admin shortened the timeout in between.
		if !expiresAt.After(record.ExpiresAt) {
			expiresAt = record.ExpiresAt.Add(time.Second)
		}
		record.Token = token
		record.ExpiresAt = expiresAt
		record.Attempts = 0
		record.PendingCode = ""
		record.CodeExpiry = nil
		applyPolicyDefaults(record, policy)
		if err := s.records.Update(ctx, record, oldToken); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNoRecord):
		record = &domain.VerificationRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			GuildID:   guildID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
		applyPolicyDefaults(record, policy)
		if err := s.records.Create(ctx, record); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &domain.StartResult{
		Record:          record,
		VerificationURL: s.verificationURL(userID, token),
	}, nil
}

// MarkStep implements domain.VerificationService. The returned bool
// signals that every required step is now satisfied and the record is
// ready to finalize.
func (s *VerificationServiceImpl) MarkStep(ctx context.Context, userID, token string, step domain.VerificationStep) (*domain.VerificationRecord, bool, error) {
	record, err := s.lookupOpen(ctx, userID, token)
	if err != nil {
		return nil, false, err
	}

	policy, err := s.policies.FindByGuild(ctx, record.GuildID)
	if err != nil {
		return nil, false, err
	}

	switch step {
	case domain.StepRecaptcha:
		record.Status.Recaptcha = true
	case domain.StepSMS:
		record.Status.SMS = true
	default:
		return nil, false, fmt.Errorf("unknown verification step %q", step)
	}

	if err := s.records.Update(ctx, record, token); err != nil {
		return nil, false, err
	}

	return record, record.Satisfies(policy), nil
}

// RequestSMSCode implements domain.VerificationService. A new code is
// issued with its own short expiry; the attempt counter increments on
// every send, never on a failed guess.
func (s *VerificationServiceImpl) RequestSMSCode(ctx context.Context, userID, token, phone, country string) error {
	record, err := s.lookupOpen(ctx, userID, token)
	if err != nil {
		return err
	}

	policy, err := s.policies.FindByGuild(ctx, record.GuildID)
	if err != nil {
		return err
	}

	if record.Attempts >= maxAttempts(policy) {
		return domain.ErrMaxAttempts
	}

	formatted := formatPhone(phone, country)
	phoneHash := s.tokens.HashPhone(formatted)

	if err := s.checkResendWindow(ctx, phoneHash); err != nil {
		return err
	}

	code, err := s.tokens.GenerateCode()
	if err != nil {
		return err
	}

	codeExpiry := time.Now().UTC().Add(s.config.CodeTTL)
	record.PendingCode = code
	record.CodeExpiry = &codeExpiry
	record.PhoneHash = phoneHash
	record.PhoneCountry = country
	record.Attempts++

	if err := s.records.Update(ctx, record, token); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(formatted, code, s.config.CodeTTL); err != nil {
		// The code is unusable if it never reached the phone; clear it
		// so the next send starts clean.
		record.PendingCode = ""
		record.CodeExpiry = nil
		if uerr := s.records.Update(ctx, record, token); uerr != nil {
			log.Printf("verification: could not clear pending code for user %s: %v", userID, uerr)
		}
		return fmt.Errorf("failed to send verification sms: %w", err)
	}

	s.armResendWindow(ctx, phoneHash)
	return nil
}

// VerifySMSCode implements domain.VerificationService. It fails closed:
// a missing, expired or mismatched code never marks the step done.
func (s *VerificationServiceImpl) VerifySMSCode(ctx context.Context, userID, token, code string) (bool, error) {
	record, err := s.lookupOpen(ctx, userID, token)
	if err != nil {
		return false, err
	}

	if record.PendingCode == "" || record.CodeExpiry == nil {
		return false, domain.ErrNoPendingCode
	}
	if time.Now().UTC().After(*record.CodeExpiry) {
		return false, domain.ErrCodeExpired
	}
	if record.PendingCode != code {
		return false, nil
	}

	record.PendingCode = ""
	record.CodeExpiry = nil
	record.Status.SMS = true
	if err := s.records.Update(ctx, record, token); err != nil {
		return false, err
	}
	return true, nil
}

// Finalize implements domain.VerificationService. It sets CompletedAt
// exactly once and computes the role grant for the actuator; calling it
// again on a completed record returns the same grant without side
// effects.
func (s *VerificationServiceImpl) Finalize(ctx context.Context, userID, guildID, token string) (*domain.RoleGrant, error) {
	record, err := s.records.FindLatest(ctx, userID, guildID)
	if err != nil {
		return nil, err
	}
	if record.Token != token {
		return nil, domain.ErrTokenMismatch
	}

	policy, err := s.policies.FindByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if record.Completed() {
		return buildGrant(record, policy), nil
	}
	if record.Expired(time.Now().UTC()) {
		return nil, domain.ErrRecordExpired
	}
	if !record.Satisfies(policy) {
		return nil, domain.ErrNotComplete
	}

	completedAt := time.Now().UTC()
	record.CompletedAt = &completedAt
	if err := s.records.Update(ctx, record, token); err != nil {
		return nil, err
	}

	return buildGrant(record, policy), nil
}

// Status implements domain.VerificationService
func (s *VerificationServiceImpl) Status(ctx context.Context, userID, guildID string) (*domain.PendingStatus, error) {
	policy, err := s.policies.FindByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if policy.VerifiedRoleID != "" {
		has, err := s.granter.HasRole(ctx, guildID, userID, policy.VerifiedRoleID)
		if err == nil && has {
			return &domain.PendingStatus{State: domain.StateAlreadyVerified}, nil
		}
	}

	record, err := s.records.FindLatest(ctx, userID, guildID)
	if errors.Is(err, domain.ErrNoRecord) {
		return &domain.PendingStatus{State: domain.StateNotStarted}, nil
	}
	if err != nil {
		return nil, err
	}

	status := &domain.PendingStatus{
		Status:    record.Status,
		Attempts:  record.Attempts,
		ExpiresAt: record.ExpiresAt,
	}
	switch {
	case record.Completed():
		status.State = domain.StateCompleted
	case record.Expired(time.Now().UTC()):
		status.State = domain.StateExpired
	default:
		status.State = domain.StatePending
	}
	return status, nil
}

// RecordForToken resolves the open record behind a verification link for
// page rendering, recording the visitor's IP on the way through.
func (s *VerificationServiceImpl) RecordForToken(ctx context.Context, userID, token, remoteIP string) (*domain.VerificationRecord, *domain.ServerPolicy, error) {
	record, err := s.lookupOpen(ctx, userID, token)
	if err != nil {
		return nil, nil, err
	}

	policy, err := s.policies.FindByGuild(ctx, record.GuildID)
	if err != nil {
		return nil, nil, err
	}

	if remoteIP != "" && record.IPAddress != remoteIP {
		record.IPAddress = remoteIP
		if err := s.records.Update(ctx, record, token); err != nil {
			log.Printf("verification: could not record visitor ip for user %s: %v", userID, err)
		}
	}

	return record, policy, nil
}

// lookupOpen resolves the open record behind a link by (user, token).
// A user verifying in several guilds holds one open record per guild,
// so the token is part of the lookup, not just a check afterwards. No
// match while other open records exist means the link was superseded
// by a later /verify.
func (s *VerificationServiceImpl) lookupOpen(ctx context.Context, userID, token string) (*domain.VerificationRecord, error) {
	record, err := s.records.FindOpenByToken(ctx, userID, token)
	if errors.Is(err, domain.ErrNoRecord) {
		if _, uerr := s.records.FindOpenByUser(ctx, userID); uerr == nil {
			return nil, domain.ErrTokenMismatch
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if record.Expired(time.Now().UTC()) {
		return nil, domain.ErrRecordExpired
	}
	return record, nil
}

func (s *VerificationServiceImpl) checkResendWindow(ctx context.Context, phoneHash string) error {
	if s.redisClient == nil || s.config.ResendWindow <= 0 {
		return nil
	}
	ttl, err := s.redisClient.TTL(ctx, resendKey(phoneHash)).Result()
	if err != nil {
		log.Printf("verification: resend throttle check failed: %v", err)
		return nil
	}
	if ttl > 0 {
		return fmt.Errorf("%w: retry in %d seconds", domain.ErrResendThrottled, int(ttl.Seconds()))
	}
	return nil
}

func (s *VerificationServiceImpl) armResendWindow(ctx context.Context, phoneHash string) {
	if s.redisClient == nil || s.config.ResendWindow <= 0 {
		return
	}
	if err := s.redisClient.Set(ctx, resendKey(phoneHash), 1, s.config.ResendWindow).Err(); err != nil {
		log.Printf("verification: could not arm resend throttle: %v", err)
	}
}

func (s *VerificationServiceImpl) verificationURL(userID, token string) string {
	return fmt.Sprintf("%s/verify/%s/%s", strings.TrimRight(s.config.BaseURL, "/"), userID, token)
}

func resendKey(phoneHash string) string {
	return "sms:res:" + phoneHash
}

// applyPolicyDefaults marks steps the policy does not require as
// already satisfied.
func applyPolicyDefaults(record *domain.VerificationRecord, policy *domain.ServerPolicy) {
	record.Status.Recaptcha = record.Status.Recaptcha || !policy.RequireRecaptcha
	record.Status.SMS = record.Status.SMS || !policy.RequireSMS
}

func buildGrant(record *domain.VerificationRecord, policy *domain.ServerPolicy) *domain.RoleGrant {
	roleIDs := []string{policy.VerifiedRoleID}
	if policy.RequireSMS && record.Status.SMS && policy.HumanRoleID != "" {
		roleIDs = append(roleIDs, policy.HumanRoleID)
	}
	return &domain.RoleGrant{
		UserID:         record.UserID,
		GuildID:        record.GuildID,
		RoleIDs:        roleIDs,
		WelcomeMessage: policy.WelcomeMessage,
	}
}

func timeoutMinutes(policy *domain.ServerPolicy) int {
	if policy.TimeoutMinutes <= 0 {
		return defaultTimeoutMinutes
	}
	return policy.TimeoutMinutes
}

func maxAttempts(policy *domain.ServerPolicy) int {
	if policy.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return policy.MaxAttempts
}

// formatPhone builds an E.164-ish number from the raw digits and the
// numeric country calling code, the way the web form submits them.
func formatPhone(phone, country string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if country == "" {
		return "+" + digits.String()
	}
	return "+" + country + digits.String()
}
