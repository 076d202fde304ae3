// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// Role names known to the permission system.
const (
	RoleAuthenticated = "authenticated"
	RoleEditor        = "editor"
)

// Role is a named permission level a user belongs to.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// User represents an account that can author articles.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Role         *Role     `json:"role,omitempty"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totpEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsEditor returns true if the user holds the editor role.
func (u *User) IsEditor() bool {
	return u != nil && u.Role != nil && u.Role.Name == RoleEditor
}

// RoleName returns the user's role name, or an empty string when no role
// is loaded.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// AsAuthor returns the public author projection of the user.
func (u *User) AsAuthor() *Author {
	return &Author{ID: u.ID, Username: u.Username, Email: u.Email}
}
