package permissions

import "time"

// Permission is a (resource, action) capability record. Name is unique
// and conventionally "resource:action", but resource and action are
// stored independently and are what capability checks match on.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionPatch applies only its non-nil fields.
type PermissionPatch struct {
	Name        *string
	Description *string
	Resource    *string
	Action      *string
	IsActive    *bool
}
