package domain

import "time"

// VerificationStep identifies one of the independent checks a guild can
// require before a member is considered verified.
type VerificationStep string

const (
	StepRecaptcha VerificationStep = "recaptcha"
	StepSMS       VerificationStep = "sms"
)

// ServerPolicy is the per-guild verification configuration
type ServerPolicy struct {
	GuildID          string
	VerifiedRoleID   string
	HumanRoleID      string
	RequireRecaptcha bool
	RequireSMS       bool
	WelcomeMessage   string
	TimeoutMinutes   int
	MaxAttempts      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StepStatus tracks per-step completion on a verification record.
// Steps a policy does not require start out already satisfied.
type StepStatus struct {
	Recaptcha bool
	SMS       bool
}

// VerificationRecord is one verification attempt for a (user, guild)
// pair. At most one record per pair has CompletedAt == nil.
type VerificationRecord struct {
	ID           string
	UserID       string
	GuildID      string
	Token        string
	Status       StepStatus
	Attempts     int
	PhoneHash    string
	PhoneCountry string
	PendingCode  string
	CodeExpiry   *time.Time
	IPAddress    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	CompletedAt  *time.Time
}

// Expired reports whether the record's link lifetime has passed.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Completed reports whether the record has been finalized.
func (r *VerificationRecord) Completed() bool {
	return r.CompletedAt != nil
}

// Satisfies reports whether every step the policy requires is done.
func (r *VerificationRecord) Satisfies(policy *ServerPolicy) bool {
	if policy.RequireRecaptcha && !r.Status.Recaptcha {
		return false
	}
	if policy.RequireSMS && !r.Status.SMS {
		return false
	}
	return true
}

// CodePending reports whether an SMS code is outstanding at the given time.
func (r *VerificationRecord) CodePending(now time.Time) bool {
	return r.PendingCode != "" && r.CodeExpiry != nil && now.Before(*r.CodeExpiry)
}

// RoleGrant describes the roles and welcome message to apply once a
// record completes. Produced by Finalize, executed by the role-grant
// actuator.
type RoleGrant struct {
	UserID         string
	GuildID        string
	RoleIDs        []string
	WelcomeMessage string
}

// StartResult is the outcome of starting (or restarting) verification.
type StartResult struct {
	Record          *VerificationRecord
	VerificationURL string
}

// VerificationState labels the lifecycle position of a (user, guild) pair.
type VerificationState string

const (
	StateNotStarted      VerificationState = "not_started"
	StatePending         VerificationState = "pending"
	StateExpired         VerificationState = "expired"
	StateCompleted       VerificationState = "completed"
	StateAlreadyVerified VerificationState = "already_verified"
)

// PendingStatus is the status snapshot reported back to the user by the
// verification-status command and the web status endpoint.
type PendingStatus struct {
	State     VerificationState
	Status    StepStatus
	Attempts  int
	ExpiresAt time.Time
}
