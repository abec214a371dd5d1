package users

import "time"

// User is a stored account row.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsSuper      bool
	IsStaff      bool
	IsActive     bool
	TenantKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleBinding maps a user to an explicit role; at most one per user.
type RoleBinding struct {
	UserID    int64
	Role      string
	CreatedAt time.Time
}
