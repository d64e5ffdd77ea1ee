package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the authorization level of an account. It governs what a user may
// do, never what a user owns.
type Role string

const (
	RoleUser  Role = "user"  // regular borrower
	RoleAdmin Role = "admin" // inventory administrator
)

// ParseRole normalizes raw and rejects anything that is not a known role.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// IsAdmin reports whether the role carries administrator rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User represents an account as stored in the `users` collection/table.
//
// Fields:
//
//	ID           – opaque unique identifier (UUID string).
//	Name         – display name.
//	Email        – unique login key, stored lower-cased.
//	PasswordHash – bcrypt hash; never serialized to clients.
//	Role         – user or admin.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the projection of a User that may leave the service.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public strips the password hash and timestamps.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lower-cases an email so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
