package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	jwt.Service
	admin          config.AdminConfig
	scannerKeyHash string
}

func NewAuthService(jwtService jwt.Service, admin config.AdminConfig, scanner config.ScannerConfig) auth.AuthService {
	return &AuthServiceImpl{
		Service:        jwtService,
		admin:          admin,
		scannerKeyHash: scanner.APIKeyHash,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.admin.Username)) == 1
	// An unset hash never matches, so the admin API stays closed until configured.
	if a.admin.PasswordHash == "" {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	passwordErr := bcrypt.CompareHashAndPassword([]byte(a.admin.PasswordHash), []byte(req.Password))
	if !usernameOK || passwordErr != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(a.admin.Username, auth.RoleAdmin)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: expiresAt,
	}, nil
}

// StreamToken implements auth.AuthService.
func (a *AuthServiceImpl) StreamToken(ctx context.Context, subject string) (auth.StreamTokenResponse, error) {
	token, expiresIn, err := a.Service.GenerateSSEToken(subject)
	if err != nil {
		return auth.StreamTokenResponse{}, fmt.Errorf("failed to generate stream token: %w", err)
	}
	return auth.StreamTokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}

// VerifyScannerKey implements auth.AuthService.
func (a *AuthServiceImpl) VerifyScannerKey(key string) error {
	if a.scannerKeyHash == "" {
		return nil
	}
	if key == "" || bcrypt.CompareHashAndPassword([]byte(a.scannerKeyHash), []byte(key)) != nil {
		return auth.ErrInvalidAPIKey
	}
	return nil
}
