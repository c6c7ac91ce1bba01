package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetToken is a single-use secret proving control of an account's email.
// Raw goes out via email; only the SHA-256 hash is persisted, so a leaked
// table row cannot be redeemed.
type ResetToken struct {
	Raw string    // raw token string delivered to the user
	Exp time.Time // UTC expiration time
}

// NewResetToken returns a 32-byte random token (64 hex chars) valid for the
// given duration.
func NewResetToken(ttl time.Duration) (ResetToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Raw: hex.EncodeToString(buf),
		Exp: time.Now().UTC().Add(ttl),
	}, nil
}

// HashResetRaw returns the SHA-256 hash of a raw reset token as a hex string.
func HashResetRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
