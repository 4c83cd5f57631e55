package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/verifybot/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.AutoMigrate(&DBServerPolicy{}, &DBVerificationRecord{}), "failed to migrate test database")
	return db
}

func testRecord(id, userID, guildID, token string, createdAt time.Time) *domain.VerificationRecord {
	return &domain.VerificationRecord{
		ID:        id,
		UserID:    userID,
		GuildID:   guildID,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(30 * time.Minute),
	}
}

func TestRecordRepositoryImpl_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := testRecord("rec-1", "user-1", "guild-1", "token-1", now)
	record.Status.Recaptcha = true
	require.NoError(t, repo.Create(ctx, record))

	found, err := repo.FindOpen(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", found.Token)
	assert.True(t, found.Status.Recaptcha, "recaptcha flag should round-trip")
	assert.False(t, found.Status.SMS, "sms flag should round-trip")

	_, err = repo.FindOpen(ctx, "user-2", "guild-1")
	assert.ErrorIs(t, err, domain.ErrNoRecord, "another user has no record")

	byUser, err := repo.FindOpenByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", byUser.ID)
}

func TestRecordRepositoryImpl_FindOpenByToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	// One open record per guild for the same user.
	require.NoError(t, repo.Create(ctx, testRecord("rec-g1", "user-1", "guild-1", "token-g1", now.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, testRecord("rec-g2", "user-1", "guild-2", "token-g2", now)))

	found, err := repo.FindOpenByToken(ctx, "user-1", "token-g1")
	require.NoError(t, err)
	assert.Equal(t, "guild-1", found.GuildID, "the older guild's token must still resolve")

	found, err = repo.FindOpenByToken(ctx, "user-1", "token-g2")
	require.NoError(t, err)
	assert.Equal(t, "guild-2", found.GuildID)

	_, err = repo.FindOpenByToken(ctx, "user-1", "token-unknown")
	assert.ErrorIs(t, err, domain.ErrNoRecord)

	// A completed record no longer answers to its token.
	done := testRecord("rec-done", "user-1", "guild-3", "token-done", now)
	completed := now
	done.CompletedAt = &completed
	require.NoError(t, repo.Create(ctx, done))
	_, err = repo.FindOpenByToken(ctx, "user-1", "token-done")
	assert.ErrorIs(t, err, domain.ErrNoRecord)
}

func TestRecordRepositoryImpl_FindNewestOpen(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	completed := now.Add(-time.Hour)
	old := testRecord("rec-old", "user-1", "guild-1", "token-old", now.Add(-2*time.Hour))
	old.CompletedAt = &completed
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, testRecord("rec-live", "user-1", "guild-1", "token-live", now)))

	open, err := repo.FindOpen(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-live", open.ID, "FindOpen must skip completed records")

	latest, err := repo.FindLatest(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-live", latest.ID, "FindLatest must prefer the newest record")
}

func TestRecordRepositoryImpl_UpdateTokenCAS(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := testRecord("rec-1", "user-1", "guild-1", "token-1", now)
	require.NoError(t, repo.Create(ctx, record))

	record.Status.SMS = true
	record.Attempts = 2
	require.NoError(t, repo.Update(ctx, record, "token-1"), "update with the live token should succeed")

	found, err := repo.FindOpen(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.True(t, found.Status.SMS)
	assert.Equal(t, 2, found.Attempts)

	// A writer holding the superseded token loses the race.
	record.Attempts = 9
	err = repo.Update(ctx, record, "token-stale")
	assert.ErrorIs(t, err, domain.ErrTokenMismatch)

	found, err = repo.FindOpen(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, 2, found.Attempts, "a stale write must not land")
}

func TestRecordRepositoryImpl_UpdateReissuesToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := testRecord("rec-1", "user-1", "guild-1", "token-1", now)
	require.NoError(t, repo.Create(ctx, record))

	record.Token = "token-2"
	record.ExpiresAt = record.ExpiresAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, record, "token-1"), "reissue update should succeed")

	found, err := repo.FindOpen(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "token-2", found.Token)

	// The old token is now dead for CAS purposes.
	err = repo.Update(ctx, record, "token-1")
	assert.ErrorIs(t, err, domain.ErrTokenMismatch)
}
