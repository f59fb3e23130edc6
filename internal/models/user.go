// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and the pure lifecycle helpers used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the back office.
type Role string

const (
	// RoleAdmin manages everything, including users and settings.
	RoleAdmin Role = "admin"
	// RoleGestor manages the program domain: calls, phases, resolutions,
	// applications, events, programs, academic years.
	RoleGestor Role = "gestor"
	// RoleEditor manages site content: news, documents, translations.
	RoleEditor Role = "editor"
)

// Capability names one guarded admin action family. Every mutating
// handler checks the acting user's capability before touching state.
type Capability string

const (
	CapManageCalls        Capability = "manage-calls"
	CapManageEvents       Capability = "manage-events"
	CapManageContent      Capability = "manage-content"
	CapManageTranslations Capability = "manage-translations"
	CapManageLookups      Capability = "manage-lookups"
	CapManageUsers        Capability = "manage-users"
	CapManageSettings     Capability = "manage-settings"
)

// roleCapabilities is the closed capability table per role.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapManageCalls, CapManageEvents, CapManageContent,
		CapManageTranslations, CapManageLookups, CapManageUsers,
		CapManageSettings,
	},
	RoleGestor: {
		CapManageCalls, CapManageEvents, CapManageTranslations,
		CapManageLookups,
	},
	RoleEditor: {
		CapManageContent, CapManageTranslations,
	},
}

// User represents a back-office user with authentication and 2FA fields.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Can reports whether the user's role grants the capability.
func (u *User) Can(c Capability) bool {
	return RoleCan(u.Role, c)
}

// RoleCan reports whether a role grants a capability. Unknown roles
// grant nothing.
func RoleCan(role Role, c Capability) bool {
	for _, have := range roleCapabilities[role] {
		if have == c {
			return true
		}
	}
	return false
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// All users must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
