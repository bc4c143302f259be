package auth

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClassifyCredential(t *testing.T) {
	tests := []struct {
		stored string
		want   CredentialKind
	}{
		{"$2a$10$abcdefghijklmnopqrstuv", CredentialHash},
		{"$2b$10$abcdefghijklmnopqrstuv", CredentialHash},
		{"$2y$10$abcdefghijklmnopqrstuv", CredentialHash},
		{"secret123", CredentialPlaintext},
		{"$1$md5crypt", CredentialPlaintext},
		{"", CredentialPlaintext},
	}
	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCredential(tt.stored))
		})
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	stored, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.Equal(t, CredentialHash, ClassifyCredential(stored))
	assert.NotEqual(t, "secret123", stored)

	assert.True(t, h.Verify("secret123", stored))
	assert.False(t, h.Verify("secret124", stored))
	assert.False(t, h.Verify(stored, stored), "hash must never match itself as plaintext")
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_LegacyPlaintext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.True(t, h.Verify("12345678", "12345678"))
	assert.False(t, h.Verify("12345678 ", "12345678"))
	assert.False(t, h.Verify("Secret", "secret"))
}

func TestHasher_EmptyAndMalformed(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("", "secret"))
	assert.False(t, h.Verify("secret", ""))
	assert.False(t, h.Verify("", ""))
	assert.False(t, h.Verify("secret", "$2b$10$not-a-real-hash"))
}

func TestHasher_TooLongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNewHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, DefaultHashCost, NewHasher(0).cost)
	assert.Equal(t, DefaultHashCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
