// Package auth issues and checks the access tokens that identify an owner.
//
// A token is an HS256 JWT whose subject is the account ID and whose "kind"
// claim is the owner kind, so the pair is enough to address mood entries
// without a lookup. The middleware still consults the account directory to
// refuse deactivated accounts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/mindspace/internal/model"
)

const issuer = "mindspace"

// DefaultTokenTTL is used when NewTokenService is given a non-positive TTL.
const DefaultTokenTTL = 24 * time.Hour

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production, e.g. MINDSPACE_JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long freshly issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Kind model.OwnerKind `json:"kind"`
	jwt.RegisteredClaims
}

// Generate signs a token for owner with the service's TTL.
func (s *TokenService) Generate(owner model.Owner) (string, error) {
	return s.GenerateWithDuration(owner, s.ttl)
}

// GenerateWithDuration signs a token with a custom expiry. Tests use a
// negative duration to produce expired tokens.
func (s *TokenService) GenerateWithDuration(owner model.Owner, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Kind: owner.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns the owner it names.
//
// Besides the signature and expiry, the issuer must be "mindspace" and the
// algorithm HS256; jwt.WithValidMethods rejects "none" and RS/HS confusion.
func (s *TokenService) Validate(tokenStr string) (model.Owner, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Owner{}, fmt.Errorf("auth: token expired")
		}
		return model.Owner{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return model.Owner{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return model.Owner{}, fmt.Errorf("auth: token has no subject")
	}
	if !c.Kind.Valid() {
		return model.Owner{}, fmt.Errorf("auth: token has unknown owner kind %q", c.Kind)
	}

	return model.Owner{ID: c.Subject, Kind: c.Kind}, nil
}
