package auth

import "time"

// User represents an authenticated user account. PasswordHash is nil for
// accounts created in the "must set a password" state.
type User struct {
	ID                int64
	Email             string
	PasswordHash      *string
	Role              int
	MustResetPassword bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
