package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewResetToken generates a random password reset token. The raw value goes
// back to the caller exactly once; only the hash is ever persisted.
func NewResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 20)

	_, err = rand.Read(buf)

	if err != nil {
		return "", "", err
	}

	raw = hex.EncodeToString(buf)

	return raw, HashResetToken(raw), nil
}

// Deterministic hash so the presented token can be matched against the
// stored one without keeping the raw value around.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
