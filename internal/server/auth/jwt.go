package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when the issuer is built with a zero ttl.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("jwt signing secret is not configured")

// Claims carries the identity reference alongside the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenIssuer mints and verifies HS256 bearer tokens. Tokens are stateless:
// they stay valid until they expire or the secret changes.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Configured reports whether a signing secret is present.
func (i *TokenIssuer) Configured() bool {
	return len(i.secret) > 0
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for userID valid for the issuer's default ttl.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	return i.IssueWithTTL(userID, i.ttl)
}

func (i *TokenIssuer) IssueWithTTL(userID string, ttl time.Duration) (string, error) {
	if !i.Configured() {
		return "", ErrMissingSecret
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
//
// Errors are one of ErrMissingSecret, common.ErrTokenExpired (signature good,
// expiry passed) or common.ErrInvalidToken (anything else). A token signed
// with another secret is always invalid, never expired, because the
// signature is checked before the claims. An empty UserID is not rejected
// here; callers decide how to treat it.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if !i.Configured() {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
