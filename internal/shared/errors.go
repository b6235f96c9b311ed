package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordResetRequired indicates the account must set a new
	// password before logging in.
	ErrPasswordResetRequired = errors.New("password reset required")
	// ErrResetTokenInvalid indicates an unknown or expired reset token.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)
