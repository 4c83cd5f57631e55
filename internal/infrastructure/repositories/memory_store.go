package repositories

import (
	"context"
	"sync"

	"github.com/you/verifybot/domain"
)

// MemoryPolicyRepository is the in-memory StoreBackend for policies,
// selected at process start for deployments without a database.
type MemoryPolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]domain.ServerPolicy
}

// NewMemoryPolicyRepository creates an empty in-memory policy store
func NewMemoryPolicyRepository() *MemoryPolicyRepository {
	return &MemoryPolicyRepository{policies: make(map[string]domain.ServerPolicy)}
}

// Upsert implements domain.PolicyRepository
func (r *MemoryPolicyRepository) Upsert(ctx context.Context, policy *domain.ServerPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[policy.GuildID] = *policy
	return nil
}

// FindByGuild implements domain.PolicyRepository
func (r *MemoryPolicyRepository) FindByGuild(ctx context.Context, guildID string) (*domain.ServerPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[guildID]
	if !ok {
		return nil, domain.ErrNoPolicy
	}
	copied := policy
	return &copied, nil
}

// MemoryRecordRepository is the in-memory StoreBackend for
// verification records. Records are plain values; mutation happens
// only through Update, mirroring the live store's ownership rules.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]domain.VerificationRecord
}

// NewMemoryRecordRepository creates an empty in-memory record store
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: make(map[string]domain.VerificationRecord)}
}

// Create implements domain.RecordRepository
func (r *MemoryRecordRepository) Create(ctx context.Context, record *domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return nil
}

// FindOpen implements domain.RecordRepository
func (r *MemoryRecordRepository) FindOpen(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	return r.find(func(rec *domain.VerificationRecord) bool {
		return rec.UserID == userID && rec.GuildID == guildID && !rec.Completed()
	})
}

// FindOpenByToken implements domain.RecordRepository
func (r *MemoryRecordRepository) FindOpenByToken(ctx context.Context, userID, token string) (*domain.VerificationRecord, error) {
	return r.find(func(rec *domain.VerificationRecord) bool {
		return rec.UserID == userID && rec.Token == token && !rec.Completed()
	})
}

// FindOpenByUser implements domain.RecordRepository
func (r *MemoryRecordRepository) FindOpenByUser(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	return r.find(func(rec *domain.VerificationRecord) bool {
		return rec.UserID == userID && !rec.Completed()
	})
}

// FindLatest implements domain.RecordRepository
func (r *MemoryRecordRepository) FindLatest(ctx context.Context, userID, guildID string) (*domain.VerificationRecord, error) {
	return r.find(func(rec *domain.VerificationRecord) bool {
		return rec.UserID == userID && rec.GuildID == guildID
	})
}

// Update implements domain.RecordRepository with the same token CAS
// semantics as the live store.
func (r *MemoryRecordRepository) Update(ctx context.Context, record *domain.VerificationRecord, expectToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[record.ID]
	if !ok {
		return domain.ErrNoRecord
	}
	if stored.Token != expectToken {
		return domain.ErrTokenMismatch
	}
	r.records[record.ID] = *record
	return nil
}

func (r *MemoryRecordRepository) find(match func(*domain.VerificationRecord) bool) (*domain.VerificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *domain.VerificationRecord
	for id := range r.records {
		rec := r.records[id]
		if !match(&rec) {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
			copied := rec
			newest = &copied
		}
	}
	if newest == nil {
		return nil, domain.ErrNoRecord
	}
	return newest, nil
}
