// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package access

// Permission names. Colon-separated, matched against role patterns with
// ':'-separated globs.
const (
	PermMuteUser            = "mute:user"
	PermBanUser             = "ban:user"
	PermBanModerator        = "ban:moderator"
	PermWarnUser            = "warn:user"
	PermTeleportUser        = "teleport:user"
	PermRoomInvite          = "room:invite"
	PermRoomKick            = "room:kick"
	PermAssignModerator     = "assign:moderator"
	PermAssignAdministrator = "assign:administrator"
	PermManageArea          = "area:manage"
	PermAreaMusic           = "area:music"
	PermBypassLock          = "bypass:lock"
	PermManageWorld         = "world:manage"
)

// Permission groups. Roles compose these explicitly rather than inheriting
// from one another.

var areaManagerPowers = []string{
	PermAreaMusic,
}

var roomOwnerPowers = []string{
	PermRoomInvite,
	PermRoomKick,
	PermManageArea,
}

var moderatorPowers = []string{
	PermMuteUser,
	PermBanUser,
	PermWarnUser,
	PermTeleportUser,
	PermRoomKick,
}

var administratorPowers = []string{
	"ban:*",
	"assign:moderator",
	PermBypassLock,
	PermManageWorld,
}

var ownerPowers = []string{
	// Full authority: every action on every resource.
	"**",
}

// DefaultRoles returns the default role definitions as permission pattern
// lists. The mapping is fixed at startup and immutable thereafter.
func DefaultRoles() map[Role][]string {
	return map[Role][]string{
		RoleAreaManager:   areaManagerPowers,
		RoleRoomOwner:     compose(areaManagerPowers, roomOwnerPowers),
		RoleModerator:     moderatorPowers,
		RoleAdministrator: compose(moderatorPowers, roomOwnerPowers, administratorPowers),
		RoleOwner:         ownerPowers,
	}
}

// compose merges permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}
