package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken("admin", "admin")
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestSSEToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, expiresIn, err := svc.GenerateSSEToken("admin")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	subject, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	access, _, err := svc.GenerateAccessToken("admin", "admin")
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)

	_, err = NewJWTService("other", time.Hour).ValidateSSEToken(token)
	assert.Error(t, err)
}
