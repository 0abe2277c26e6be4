package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newService(t *testing.T, scannerKey string) auth.AuthService {
	t.Helper()
	scanner := config.ScannerConfig{}
	if scannerKey != "" {
		scanner.APIKeyHash = hash(t, scannerKey)
	}
	return NewAuthService(
		jwt.NewJWTService("secret", time.Hour),
		config.AdminConfig{Username: "admin", PasswordHash: hash(t, "s3cret-pass")},
		scanner,
	)
}

func TestLogin(t *testing.T) {
	svc := newService(t, "")
	ctx := context.Background()

	resp, err := svc.Login(ctx, auth.LoginRequest{Username: "admin", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Greater(t, resp.AccessTokenExpiresIn, time.Now().Unix())

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "root", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, auth.LoginRequest{})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	svc := NewAuthService(jwt.NewJWTService("secret", time.Hour), config.AdminConfig{Username: "admin"}, config.ScannerConfig{})

	_, err := svc.Login(context.Background(), auth.LoginRequest{Username: "admin", Password: "anything"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyScannerKey(t *testing.T) {
	open := newService(t, "")
	assert.NoError(t, open.VerifyScannerKey(""))

	guarded := newService(t, "esp32-key")
	assert.NoError(t, guarded.VerifyScannerKey("esp32-key"))
	assert.ErrorIs(t, guarded.VerifyScannerKey(""), auth.ErrInvalidAPIKey)
	assert.ErrorIs(t, guarded.VerifyScannerKey("other"), auth.ErrInvalidAPIKey)
}

func TestStreamToken(t *testing.T) {
	jwtService := jwt.NewJWTService("secret", time.Hour)
	svc := NewAuthService(jwtService, config.AdminConfig{}, config.ScannerConfig{})

	resp, err := svc.StreamToken(context.Background(), "admin")
	require.NoError(t, err)

	subject, err := jwtService.ValidateSSEToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}
