// Package models defines the domain models for Recrutia.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleName identifies one of the application roles.
type RoleName string

const (
	// RoleAdmin manages organisations and their establishments.
	RoleAdmin RoleName = "admin"
	// RoleRecruiter can view organisations it belongs to.
	RoleRecruiter RoleName = "recruiter"
	// RoleCandidate applies to offers; no organisation management access.
	RoleCandidate RoleName = "candidate"
)

// Permission names granted through roles.
const (
	PermManageOrganisations = "manage organisations"
	PermViewOrganisations   = "view organisations"
)

// Role is an assignable application role carrying permission grants.
type Role struct {
	ID        uuid.UUID `json:"id"`
	Name      RoleName  `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents an authenticated account. A user has zero or one role;
// permissions are inherited transitively from that role.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash *string    `json:"-"`
	OIDCSubject  *string    `json:"-"`
	RoleID       *uuid.UUID `json:"role_id,omitempty"`
	RoleName     *RoleName  `json:"role,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser creates a new User with the given details.
func NewUser(name, email string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasRole returns true if the user has the given role assigned.
func (u *User) HasRole(role RoleName) bool {
	return u.RoleName != nil && *u.RoleName == role
}

// PublicProfile is the subset of user fields exposed inside page props
// (owner and member listings).
type PublicProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Public returns the user's public profile.
func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}
