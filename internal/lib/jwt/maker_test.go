package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		identity Identity
	}{
		{
			name:     "employee",
			identity: Identity{UserID: "u-1", Email: "an@example.com", Role: "employee", TenantID: "t-1"},
		},
		{
			name:     "kitchen",
			identity: Identity{UserID: "u-2", Role: "kitchen", TenantID: "t-1"},
		},
		{
			name:     "admin without tenant",
			identity: Identity{UserID: "u-3", Role: "admin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.identity)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.identity, claims.Identity())
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken(Identity{UserID: "u-1", Role: "employee"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createToken(t, secretKey, -time.Hour, "u-1")},
		{name: "wrong secret key", token: createToken(t, "wrong_secret_key", time.Hour, "u-1")},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "missing subject", token: createToken(t, secretKey, time.Hour, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func createToken(t *testing.T, secretKey string, ttl time.Duration, userID string) string {
	maker := NewJWTMaker(secretKey, ttl)
	token, err := maker.GenerateToken(Identity{UserID: userID, Role: "employee"})
	require.NoError(t, err)
	return token
}
