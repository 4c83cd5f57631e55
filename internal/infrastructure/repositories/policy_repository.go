package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/verifybot/domain"
)

// PolicyRepositoryImpl implements domain.PolicyRepository using GORM
type PolicyRepositoryImpl struct {
	db *gorm.DB
}

// DBServerPolicy represents the database model for ServerPolicy
type DBServerPolicy struct {
	GuildID          string `gorm:"primaryKey;size:32"`
	VerifiedRoleID   string `gorm:"size:32"`
	HumanRoleID      string `gorm:"size:32"`
	RequireRecaptcha bool
	RequireSMS       bool
	WelcomeMessage   string `gorm:"size:2000"`
	TimeoutMinutes   int
	MaxAttempts      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (DBServerPolicy) TableName() string {
	return "server_policies"
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) domain.PolicyRepository {
	return &PolicyRepositoryImpl{db: db}
}

// Upsert implements domain.PolicyRepository
func (r *PolicyRepositoryImpl) Upsert(ctx context.Context, policy *domain.ServerPolicy) error {
	dbPolicy := policyToDB(policy)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			UpdateAll: true,
		}).
		Create(dbPolicy).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// FindByGuild implements domain.PolicyRepository
func (r *PolicyRepositoryImpl) FindByGuild(ctx context.Context, guildID string) (*domain.ServerPolicy, error) {
	var dbPolicy DBServerPolicy
	err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&dbPolicy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoPolicy
		}
		return nil, storeErr(err)
	}
	return policyToDomain(&dbPolicy), nil
}

// storeErr wraps a driver error so callers can distinguish "store
// unreachable" from expected domain conditions and decide on retry.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func policyToDB(policy *domain.ServerPolicy) *DBServerPolicy {
	return &DBServerPolicy{
		GuildID:          policy.GuildID,
		VerifiedRoleID:   policy.VerifiedRoleID,
		HumanRoleID:      policy.HumanRoleID,
		RequireRecaptcha: policy.RequireRecaptcha,
		RequireSMS:       policy.RequireSMS,
		WelcomeMessage:   policy.WelcomeMessage,
		TimeoutMinutes:   policy.TimeoutMinutes,
		MaxAttempts:      policy.MaxAttempts,
		CreatedAt:        policy.CreatedAt,
		UpdatedAt:        policy.UpdatedAt,
	}
}

func policyToDomain(dbPolicy *DBServerPolicy) *domain.ServerPolicy {
	return &domain.ServerPolicy{
		GuildID:          dbPolicy.GuildID,
		VerifiedRoleID:   dbPolicy.VerifiedRoleID,
		HumanRoleID:      dbPolicy.HumanRoleID,
		RequireRecaptcha: dbPolicy.RequireRecaptcha,
		RequireSMS:       dbPolicy.RequireSMS,
		WelcomeMessage:   dbPolicy.WelcomeMessage,
		TimeoutMinutes:   dbPolicy.TimeoutMinutes,
		MaxAttempts:      dbPolicy.MaxAttempts,
		CreatedAt:        dbPolicy.CreatedAt,
		UpdatedAt:        dbPolicy.UpdatedAt,
	}
}
