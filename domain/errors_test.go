package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
		description string
	}{
		{
			name:        "ErrNoPolicy",
			err:         ErrNoPolicy,
			expectedMsg: "guild has no verification policy",
			description: "should tell the caller to run setup",
		},
		{
			name:        "ErrInvalidPolicy",
			err:         ErrInvalidPolicy,
			expectedMsg: "invalid verification policy",
			description: "should indicate a rejected setup attempt",
		},
		{
			name:        "ErrAlreadyVerified",
			err:         ErrAlreadyVerified,
			expectedMsg: "user already verified",
			description: "terminal success variant, not a failure",
		},
		{
			name:        "ErrNoRecord",
			err:         ErrNoRecord,
			expectedMsg: "no open verification record",
			description: "should indicate a dead link",
		},
		{
			name:        "ErrTokenMismatch",
			err:         ErrTokenMismatch,
			expectedMsg: "verification token mismatch",
			description: "should indicate a superseded link",
		},
		{
			name:        "ErrRecordExpired",
			err:         ErrRecordExpired,
			expectedMsg: "verification record has expired",
			description: "should indicate the link lifetime passed",
		},
		{
			name:        "ErrMaxAttempts",
			err:         ErrMaxAttempts,
			expectedMsg: "maximum sms attempts exceeded",
			description: "should indicate no sends remain",
		},
		{
			name:        "ErrStoreUnavailable",
			err:         ErrStoreUnavailable,
			expectedMsg: "verification store unavailable",
			description: "only this kind is retryable by the caller",
		},
		{
			name:        "ErrRoleGrantFailed",
			err:         ErrRoleGrantFailed,
			expectedMsg: "role grant failed",
			description: "completed internally, external effect failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expectedMsg {
				t.Errorf("got %q, want %q (%s)", tt.err.Error(), tt.expectedMsg, tt.description)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: verified_role cannot be the everyone role", ErrInvalidPolicy)
	if !errors.Is(wrapped, ErrInvalidPolicy) {
		t.Error("wrapped policy error should match ErrInvalidPolicy")
	}

	storeErr := fmt.Errorf("%w: dial tcp: connection refused", ErrStoreUnavailable)
	if !errors.Is(storeErr, ErrStoreUnavailable) {
		t.Error("wrapped store error should match ErrStoreUnavailable")
	}
	if errors.Is(storeErr, ErrNoRecord) {
		t.Error("store error should not match unrelated sentinels")
	}
}
