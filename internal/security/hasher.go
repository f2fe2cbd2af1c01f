// Package security holds the credential hasher, the caller identity carried
// through request contexts, and the authorization gate.
package security

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext secrets into salted digests and checks them.
type Hasher interface {
	// Hash returns a new digest; two calls on the same input differ.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches digest.
	Verify(plaintext, digest string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Out of range costs
// fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt digest of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", oops.Code("HASH_FAILED").Wrap(err)
	}
	return string(digest), nil
}

// Verify compares plaintext against a bcrypt digest.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
