package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mindspace/internal/model"
)

const testSecret = "test-secret-at-least-16-chars!!"

var testOwner = model.Owner{ID: "acc-123", Kind: model.OwnerStudent}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err, "secrets under 16 chars are rejected")

	ts, err := NewTokenService("this-is-16-chars", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, ts.TTL())
}

func TestGenerate_Validate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, owner := range []model.Owner{
		testOwner,
		{ID: "acc-123", Kind: model.OwnerCounselor},
	} {
		token, err := ts.Generate(owner)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(token, "."), "header.payload.signature")

		got, err := ts.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, owner, got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)
	require.NoError(t, err)

	good, err := ts.Generate(testOwner)
	require.NoError(t, err)
	expired, err := ts.GenerateWithDuration(testOwner, -time.Second)
	require.NoError(t, err)
	foreign, err := other.Generate(testOwner)
	require.NoError(t, err)
	badKind, err := ts.Generate(model.Owner{ID: "x", Kind: "admin"})
	require.NoError(t, err)
	noSubject, err := ts.Generate(model.Owner{Kind: model.OwnerStudent})
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind: model.OwnerStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"tampered":     good[:len(good)-3] + "xxx",
		"wrong secret": foreign,
		"unknown kind": badKind,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
		"empty":        "",
		"garbage":      "not.a.jwt.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Validate(token)
			assert.Error(t, err)
		})
	}
}
