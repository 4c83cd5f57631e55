package services

import (
	"context"
	"errors"
	"testing"

	"github.com/you/verifybot/domain"
	"github.com/you/verifybot/internal/mocks"
)

func TestPolicyServiceImpl_Setup(t *testing.T) {
	tests := []struct {
		name        string
		description string
		policy      *domain.ServerPolicy
		expectedErr error
		validate    func(t *testing.T, saved *domain.ServerPolicy)
	}{
		{
			name:        "ValidPolicy",
			description: "Complete policy is persisted as given",
			policy: &domain.ServerPolicy{
				GuildID:          "guild-1",
				VerifiedRoleID:   "role-verified",
				HumanRoleID:      "role-human",
				RequireRecaptcha: true,
				RequireSMS:       true,
				WelcomeMessage:   "hello",
				TimeoutMinutes:   45,
				MaxAttempts:      5,
			},
			validate: func(t *testing.T, saved *domain.ServerPolicy) {
				if saved.WelcomeMessage != "hello" {
					t.Errorf("expected custom welcome message, got %q", saved.WelcomeMessage)
				}
				if saved.TimeoutMinutes != 45 {
					t.Errorf("expected timeout 45, got %d", saved.TimeoutMinutes)
				}
				if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
					t.Error("expected timestamps to be set")
				}
			},
		},
		{
			name:        "DefaultsApplied",
			description: "Welcome message, timeout and attempts default when omitted",
			policy: &domain.ServerPolicy{
				GuildID:        "guild-1",
				VerifiedRoleID: "role-verified",
			},
			validate: func(t *testing.T, saved *domain.ServerPolicy) {
				if saved.WelcomeMessage != defaultWelcomeMessage {
					t.Errorf("expected default welcome message, got %q", saved.WelcomeMessage)
				}
				if saved.TimeoutMinutes != defaultTimeoutMinutes {
					t.Errorf("expected default timeout, got %d", saved.TimeoutMinutes)
				}
				if saved.MaxAttempts != defaultMaxAttempts {
					t.Errorf("expected default attempts, got %d", saved.MaxAttempts)
				}
			},
		},
		{
			name:        "MissingGuild",
			description: "Guild ID is required",
			policy: &domain.ServerPolicy{
				VerifiedRoleID: "role-verified",
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name:        "MissingVerifiedRole",
			description: "Verified role is required",
			policy: &domain.ServerPolicy{
				GuildID: "guild-1",
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name:        "VerifiedRoleIsEveryone",
			description: "The everyone role shares the guild ID and must be rejected",
			policy: &domain.ServerPolicy{
				GuildID:        "guild-1",
				VerifiedRoleID: "guild-1",
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name:        "HumanRoleIsEveryone",
			description: "The everyone role cannot be the human role either",
			policy: &domain.ServerPolicy{
				GuildID:        "guild-1",
				VerifiedRoleID: "role-verified",
				HumanRoleID:    "guild-1",
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name:        "TimeoutTooShort",
			description: "Timeouts below the minimum are rejected",
			policy: &domain.ServerPolicy{
				GuildID:        "guild-1",
				VerifiedRoleID: "role-verified",
				TimeoutMinutes: minTimeoutMinutes - 1,
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name:        "TimeoutTooLong",
			description: "Timeouts above the maximum are rejected",
			policy: &domain.ServerPolicy{
				GuildID:        "guild-1",
				VerifiedRoleID: "role-verified",
				TimeoutMinutes: maxTimeoutMinutes + 1,
			},
			expectedErr: domain.ErrInvalidPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockPolicyRepository()
			svc := NewPolicyService(repo)

			saved, err := svc.Setup(context.Background(), tt.policy)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("%s: expected %v, got %v", tt.description, tt.expectedErr, err)
				}
				if repo.UpsertCalls != 0 {
					t.Errorf("%s: invalid policy must not be persisted", tt.description)
				}
				return
			}

			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.description, err)
			}
			if repo.UpsertCalls != 1 {
				t.Errorf("%s: expected one upsert, got %d", tt.description, repo.UpsertCalls)
			}
			if tt.validate != nil {
				tt.validate(t, saved)
			}
		})
	}
}

func TestPolicyServiceImpl_Get(t *testing.T) {
	repo := mocks.NewMockPolicyRepository()
	want := &domain.ServerPolicy{GuildID: "guild-1", VerifiedRoleID: "role-verified"}
	repo.FindByGuildFunc = func(ctx context.Context, guildID string) (*domain.ServerPolicy, error) {
		if guildID != "guild-1" {
			return nil, domain.ErrNoPolicy
		}
		return want, nil
	}
	svc := NewPolicyService(repo)

	got, err := svc.Get(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != want {
		t.Error("expected the repository's policy back")
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNoPolicy) {
		t.Errorf("expected ErrNoPolicy for unknown guild, got %v", err)
	}
}
