// Package auth — password reset tokens.
//
// RESET TOKEN LIFECYCLE:
// Generate() mints a high-entropy random token. The plaintext is returned
// exactly once — it travels to the user inside the reset link and is
// never persisted. Only its sha256 hash is stored on the user record,
// together with a 10-minute expiry. Completing a reset presents the
// plaintext back; we re-hash it, look the hash up, and check the clock.
// A successful reset clears both stored fields, which is what makes the
// token single-use.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// resetTokenBytes is the entropy of a reset token: 20 random bytes =
// 160 bits, hex-encoded to 40 characters in the reset link.
const resetTokenBytes = 20

// ResetTokenTTL is the fixed validity window of a reset token.
const ResetTokenTTL = 10 * time.Minute

// ResetTokenService generates and validates single-use password-reset
// tokens. It is stateless; persistence of the hash+expiry pair is the
// caller's job.
type ResetTokenService struct {
	// now is swappable in tests to exercise expiry without sleeping.
	now func() time.Time
}

// NewResetTokenService creates a ResetTokenService using the real clock.
func NewResetTokenService() *ResetTokenService {
	return &ResetTokenService{now: time.Now}
}

// newResetTokenServiceWithClock is used by tests in this package.
func newResetTokenServiceWithClock(now func() time.Time) *ResetTokenService {
	return &ResetTokenService{now: now}
}

// Generate returns a fresh reset token: the plaintext to hand to the
// user, the sha256 hash to persist, and the expiry instant.
func (s *ResetTokenService) Generate() (plain, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("auth: generating reset token: %w", err)
	}

	plain = hex.EncodeToString(buf)
	hash = s.HashToken(plain)
	expiresAt = s.now().Add(ResetTokenTTL)
	return plain, hash, expiresAt, nil
}

// Now exposes the service clock so callers share the same notion of
// time when checking stored expiries.
func (s *ResetTokenService) Now() time.Time {
	return s.now()
}

// HashToken returns the hex-encoded sha256 of a plaintext reset token.
// This is the stored form and the lookup key when a token is presented.
func (s *ResetTokenService) HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Validate reports whether a presented plaintext token matches the
// stored hash and has not expired. The hash comparison is constant-time
// (hmac.Equal) so a byte-by-byte timing probe learns nothing.
func (s *ResetTokenService) Validate(plain, storedHash string, storedExpiresAt time.Time) bool {
	if s.now().After(storedExpiresAt) {
		return false
	}
	presented := s.HashToken(plain)
	return hmac.Equal([]byte(presented), []byte(storedHash))
}
