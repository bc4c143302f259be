package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor applied to new credentials.
const DefaultHashCost = 10

// CredentialKind tells how a stored credential must be checked.
type CredentialKind int

const (
	// CredentialPlaintext is a legacy record saved before hashing was
	// introduced. It is compared verbatim.
	CredentialPlaintext CredentialKind = iota
	// CredentialHash is a bcrypt hash.
	CredentialHash
)

func (k CredentialKind) String() string {
	if k == CredentialHash {
		return "hash"
	}
	return "plaintext"
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// ClassifyCredential decides whether stored is a bcrypt hash. Hash shape
// always wins, so a hashed record is never matched as plaintext.
func ClassifyCredential(stored string) CredentialKind {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return CredentialHash
		}
	}
	return CredentialPlaintext
}

// Hasher hashes new passwords and verifies login attempts.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.Validation("Password must be at most 72 bytes")
		}
		return "", common.Internal("Error hashing password", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches stored. It never fails: empty
// inputs and malformed hashes simply do not match.
func (h *Hasher) Verify(plaintext, stored string) bool {
	if plaintext == "" || stored == "" {
		return false
	}

	switch ClassifyCredential(stored) {
	case CredentialHash:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
	default:
		return subtle.ConstantTimeCompare([]byte(plaintext), []byte(stored)) == 1
	}
}
