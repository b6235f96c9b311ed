package roles

import "time"

// Role is a managed role record. Permission holds the canonical encoded
// category string; it is only ever produced by the authz codec.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	RoleID      int       `json:"role_id"`
	Permission  string    `json:"permission"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
