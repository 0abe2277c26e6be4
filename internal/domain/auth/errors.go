package auth

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrInvalidAPIKey          = errors.New("invalid or missing scanner api key")
)
