package roles

import "time"

// Role represents a named grant collection. Name is a semantic key used
// in authorization checks, not just a display label, and is globally
// unique and case-sensitive.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePatch applies only its non-nil fields.
type RolePatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}
