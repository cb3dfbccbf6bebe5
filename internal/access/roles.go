// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package access provides role assignments and permission resolution.
//
// Roles are held per (user, context) pair; a user may hold different roles
// in different contexts, and several roles in one context. Permissions are
// colon-separated patterns ("ban:user") compiled once at startup; whether a
// user holds a permission is resolved by walking the context chain from the
// user's current area up to the Global root.
package access

// Role is a named authority tag held within one specific context.
type Role string

// Roles, in display priority order. The order is used only to pick a single
// "highest role" for presentation; it implies no permission inheritance.
const (
	RoleOwner         Role = "owner"
	RoleAdministrator Role = "administrator"
	RoleModerator     Role = "moderator"
	RoleRoomOwner     Role = "room_owner"
	RoleAreaManager   Role = "area_manager"

	// RoleNone is the result of resolving a user with no role anywhere on
	// their context chain.
	RoleNone Role = ""
)

// displayPriority orders roles for HighestRole. Lower index wins.
var displayPriority = []Role{
	RoleOwner,
	RoleAdministrator,
	RoleModerator,
	RoleRoomOwner,
	RoleAreaManager,
}

// String returns the string representation of the role.
func (r Role) String() string { return string(r) }

// AuthorityRank is the explicit total order over role authority used by the
// ban/mute counter-hierarchy. Higher outranks lower; RoleNone ranks 0.
func AuthorityRank(r Role) int {
	switch r {
	case RoleOwner:
		return 5
	case RoleAdministrator:
		return 4
	case RoleModerator:
		return 3
	case RoleRoomOwner:
		return 2
	case RoleAreaManager:
		return 1
	default:
		return 0
	}
}
