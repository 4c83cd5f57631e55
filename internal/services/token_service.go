package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/you/verifybot/domain"
)

const (
	tokenBytes = 32
	codeLength = 6
)

// TokenServiceImpl implements domain.TokenService
type TokenServiceImpl struct {
	phoneSecret string
}

// NewTokenService creates a new token service. The phone secret salts
// phone hashes so the raw number is never stored.
func NewTokenService(phoneSecret string) domain.TokenService {
	return &TokenServiceImpl{phoneSecret: phoneSecret}
}

// GenerateToken returns a hex-encoded 256-bit verification token.
func (s *TokenServiceImpl) GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateCode returns a uniformly random 6-digit SMS code.
func (s *TokenServiceImpl) GenerateCode() (string, error) {
	digits := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}

// HashPhone returns the salted SHA-256 digest of a phone number.
func (s *TokenServiceImpl) HashPhone(number string) string {
	sum := sha256.Sum256([]byte(number + s.phoneSecret))
	return hex.EncodeToString(sum[:])
}
