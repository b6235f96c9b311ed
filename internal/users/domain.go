package users

import "time"

// User represents a managed user account. Role is the raw integer level;
// the name shown in listings comes from the fixed level mapping.
type User struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Role              int       `json:"role"`
	RoleName          string    `json:"role_name"`
	MustResetPassword bool      `json:"must_reset_password"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
