package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/verifybot/domain"
)

// RecordRepositoryImpl implements domain.RecordRepository using GORM
type RecordRepositoryImpl struct {
	db *gorm.DB
}

// DBVerificationRecord represents the database model for VerificationRecord
type DBVerificationRecord struct {
	ID            string     `gorm:"primaryKey;size:36"`
	UserID        string     `gorm:"index:idx_record_identity;size:32"`
	GuildID       string     `gorm:"index:idx_record_identity;size:32"`
	Token         string     `gorm:"index;size:64"`
	RecaptchaDone bool
	SMSDone       bool
	Attempts      int
	PhoneHash     string     `gorm:"size:64"`
	PhoneCountry  string     `gorm:"size:8"`
	PendingCode   string     `gorm:"size:8"`
	CodeExpiry    *time.Time
	IPAddress     string     `gorm:"size:64"`
	CreatedAt     time.Time  `gorm:"index"`
	ExpiresAt     time.Time
	CompletedAt   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBVerificationRecord) TableName() string {
	return "verification_records"
}

// NewRecordRepository creates a new verification record repository
func NewRecordRepository(db *gorm.DB) domain.RecordRepository {
	return &RecordRepositoryImpl{db: db}
}

// Create implements domain.RecordRepository
func (r *RecordRepositoryImpl) Create(ctx context.Context, record *domain.VerificationRecord) error {
	if err := r.db.WithContext(ctx).Create(recordToDB(record)).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// FindOpen implements domain.RecordRepository
func (r *RecordRepositoryImpl) FindOpen(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND completed_at IS NULL", userID, guildID))
}

// FindOpenByToken implements domain.RecordRepository. A user may hold
// one open record per guild; the token picks the right one.
func (r *RecordRepositoryImpl) FindOpenByToken(ctx context.Context, userID, token string) (*domain.VerificationRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Where("user_id = ? AND token = ? AND completed_at IS NULL", userID, token))
}

// FindOpenByUser implements domain.RecordRepository. The newest open
// record wins across guilds.
func (r *RecordRepositoryImpl) FindOpenByUser(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Where("user_id = ? AND completed_at IS NULL", userID))
}

// FindLatest implements domain.RecordRepository
func (r *RecordRepositoryImpl) FindLatest(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ?", userID, guildID))
}

// Update implements domain.RecordRepository. The write is a compare
// and swap on (id, token): zero rows affected means the record was
// reissued under a new token since this copy was loaded.
func (r *RecordRepositoryImpl) Update(ctx context.Context, record *domain.VerificationRecord, expectToken string) error {
	result := r.db.WithContext(ctx).
		Model(&DBVerificationRecord{}).
		Where("id = ? AND token = ?", record.ID, expectToken).
		Select("*").
		Omit("id", "created_at").
		Updates(recordToDB(record))
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTokenMismatch
	}
	return nil
}

func (r *RecordRepositoryImpl) findOne(ctx context.Context, query *gorm.DB) (*domain.VerificationRecord, error) {
	var dbRecord DBVerificationRecord
	err := query.Order("created_at DESC").First(&dbRecord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoRecord
		}
		return nil, storeErr(err)
	}
	return recordToDomain(&dbRecord), nil
}

func recordToDB(record *domain.VerificationRecord) *DBVerificationRecord {
	return &DBVerificationRecord{
		ID:            record.ID,
		UserID:        record.UserID,
		GuildID:       record.GuildID,
		Token:         record.Token,
		RecaptchaDone: record.Status.Recaptcha,
		SMSDone:       record.Status.SMS,
		Attempts:      record.Attempts,
		PhoneHash:     record.PhoneHash,
		PhoneCountry:  record.PhoneCountry,
		PendingCode:   record.PendingCode,
		CodeExpiry:    record.CodeExpiry,
		IPAddress:     record.IPAddress,
		CreatedAt:     record.CreatedAt,
		ExpiresAt:     record.ExpiresAt,
		CompletedAt:   record.CompletedAt,
	}
}

func recordToDomain(dbRecord *DBVerificationRecord) *domain.VerificationRecord {
	return &domain.VerificationRecord{
		ID:      dbRecord.ID,
		UserID:  dbRecord.UserID,
		GuildID: dbRecord.GuildID,
		Token:   dbRecord.Token,
		Status: domain.StepStatus{
			Recaptcha: dbRecord.RecaptchaDone,
			SMS:       dbRecord.SMSDone,
		},
		Attempts:     dbRecord.Attempts,
		PhoneHash:    dbRecord.PhoneHash,
		PhoneCountry: dbRecord.PhoneCountry,
		PendingCode:  dbRecord.PendingCode,
		CodeExpiry:   dbRecord.CodeExpiry,
		IPAddress:    dbRecord.IPAddress,
		CreatedAt:    dbRecord.CreatedAt,
		ExpiresAt:    dbRecord.ExpiresAt,
		CompletedAt:  dbRecord.CompletedAt,
	}
}
