package auth

import "errors"

// Authentication failures are terminal: handlers map each to a 401 with a
// stable message and never retry internally.
var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountDeactivated  = errors.New("account has been deactivated")
	ErrSessionInvalid      = errors.New("session expired or invalid")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenMissing = errors.New("refresh token not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)
