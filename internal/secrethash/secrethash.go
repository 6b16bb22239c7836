// Package secrethash hashes values salted with the site encryption key.
package secrethash

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/allisson/go-pwdhash"
)

// LegacyMD5 returns the hex MD5 digest of key+value.
// Kept for compatibility with hashes stored by existing installs; use Hasher
// for anything new.
func LegacyMD5(key, value string) string {
	sum := md5.Sum([]byte(key + value))
	return hex.EncodeToString(sum[:])
}

// VerifyLegacyMD5 reports whether encoded is the LegacyMD5 hash of key+value,
// comparing in constant time.
func VerifyLegacyMD5(key, value, encoded string) bool {
	return subtle.ConstantTimeCompare([]byte(LegacyMD5(key, value)), []byte(encoded)) == 1
}

// Hasher produces Argon2id hashes of key+value
type Hasher struct {
	hasher *pwdhash.PasswordHasher
}

// New creates a Hasher using the moderate Argon2id policy
func New() (*Hasher, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}
	return &Hasher{hasher: hasher}, nil
}

// Hash returns an encoded Argon2id hash of key+value
func (h *Hasher) Hash(key, value string) (string, error) {
	encoded, err := h.hasher.Hash([]byte(key + value))
	if err != nil {
		return "", fmt.Errorf("failed to hash value: %w", err)
	}
	return encoded, nil
}

// Verify reports whether key+value matches the encoded hash.
// Comparison is constant time; malformed hashes never match.
func (h *Hasher) Verify(key, value, encoded string) bool {
	ok, err := h.hasher.Verify([]byte(key+value), encoded)
	if err != nil {
		return false
	}
	return ok
}
