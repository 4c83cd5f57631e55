package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/verifybot/domain"
)

func TestPolicyRepositoryImpl_UpsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPolicyRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	policy := &domain.ServerPolicy{
		GuildID:          "guild-1",
		VerifiedRoleID:   "role-verified",
		HumanRoleID:      "role-human",
		RequireRecaptcha: true,
		RequireSMS:       true,
		WelcomeMessage:   "hello",
		TimeoutMinutes:   30,
		MaxAttempts:      3,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.Upsert(ctx, policy))

	found, err := repo.FindByGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-verified", found.VerifiedRoleID)
	assert.True(t, found.RequireSMS)
	assert.Equal(t, "hello", found.WelcomeMessage)

	// Second setup for the same guild replaces, not duplicates.
	policy.VerifiedRoleID = "role-verified-2"
	policy.RequireSMS = false
	policy.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Upsert(ctx, policy))

	found, err = repo.FindByGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-verified-2", found.VerifiedRoleID)
	assert.False(t, found.RequireSMS, "replacement should clear RequireSMS")

	var count int64
	require.NoError(t, db.Model(&DBServerPolicy{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "one row per guild")
}

func TestPolicyRepositoryImpl_FindByGuild_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPolicyRepository(db)

	_, err := repo.FindByGuild(context.Background(), "guild-missing")
	assert.ErrorIs(t, err, domain.ErrNoPolicy)
}
