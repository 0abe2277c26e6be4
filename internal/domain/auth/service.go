package auth

import (
	"context"
)

type AuthService interface {
	// Login exchanges the administrator credentials for an access token
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)

	// StreamToken issues a short-lived token for the event stream, passed as ?token=
	StreamToken(ctx context.Context, subject string) (StreamTokenResponse, error)

	// VerifyScannerKey checks the key a scanner presents. It accepts any key when none is configured.
	VerifyScannerKey(key string) error
}
