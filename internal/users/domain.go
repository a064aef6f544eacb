package users

import "time"

// Profile is the optional profile sub-record owned by a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// User represents a user account for management.
type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"is_active"`
	EmailVerified *time.Time `json:"email_verified"`
	Roles         []string   `json:"roles"`
	Profile       *Profile   `json:"profile,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
