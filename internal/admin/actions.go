// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/world"
)

// Notification template keys. The presentation layer maps these to rendered
// text; the engine never formats user-facing strings.
const (
	tmplFriendInvite    = "friend.invite"
	tmplFriendAccepted  = "friend.accepted"
	tmplFriendRemoved   = "friend.removed"
	tmplWarned          = "discipline.warned"
	tmplMuted           = "discipline.muted"
	tmplUnmuted         = "discipline.unmuted"
	tmplBanned          = "discipline.banned"
	tmplUnbanned        = "discipline.unbanned"
	tmplRoomInvite      = "room.invite"
	tmplRoomKicked      = "room.kicked"
	tmplTeleportArrived = "teleport.arrived"
	tmplRoleAssigned    = "role.assigned"
	tmplRoleWithdrawn   = "role.withdrawn"
)

func (e *Engine) inviteFriend(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	if e.relations.AreFriends(actorID, targetID) {
		return rejected(ActionInviteFriend, ReasonIllegalAction), nil
	}
	if e.relations.Ignores(targetID, actorID) {
		// The invitee has the actor on ignore; the invite silently fails
		// rather than reaching them.
		return rejected(ActionInviteFriend, ReasonIllegalAction), nil
	}
	e.relations.InviteFriend(actorID, targetID)
	e.notify(ctx, targetID, tmplFriendInvite, []string{actorID.String()}, true)
	return applied(ActionInviteFriend), nil
}

func (e *Engine) friendAccept(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	if !e.relations.HasInvite(targetID, actorID) {
		return rejected(ActionFriendAccept, ReasonIllegalAction), nil
	}
	e.relations.Befriend(actorID, targetID)
	e.notify(ctx, targetID, tmplFriendAccepted, []string{actorID.String()}, false)
	return applied(ActionFriendAccept), nil
}

func (e *Engine) friendReject(actorID, targetID ulid.ULID) (Result, error) {
	if !e.relations.HasInvite(targetID, actorID) {
		return rejected(ActionFriendReject, ReasonIllegalAction), nil
	}
	e.relations.ClearInvite(targetID, actorID)
	return applied(ActionFriendReject), nil
}

func (e *Engine) removeFriend(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	if !e.relations.AreFriends(actorID, targetID) {
		return rejected(ActionRemoveFriend, ReasonIllegalAction), nil
	}
	e.relations.Unfriend(actorID, targetID)
	e.notify(ctx, targetID, tmplFriendRemoved, []string{actorID.String()}, false)
	return applied(ActionRemoveFriend), nil
}

func (e *Engine) ignoreUser(actorID, targetID ulid.ULID) (Result, error) {
	if e.relations.Ignores(actorID, targetID) {
		return rejected(ActionIgnoreUser, ReasonIllegalAction), nil
	}
	e.relations.Ignore(actorID, targetID)
	return applied(ActionIgnoreUser), nil
}

func (e *Engine) unignoreUser(actorID, targetID ulid.ULID) (Result, error) {
	if !e.relations.Ignores(actorID, targetID) {
		return rejected(ActionUnignoreUser, ReasonIllegalAction), nil
	}
	e.relations.Unignore(actorID, targetID)
	return applied(ActionUnignoreUser), nil
}

func (e *Engine) reportUser(_ context.Context, actorID, targetID ulid.ULID) (Result, error) {
	// Reports need no permission, only co-presence: the report lands on the
	// innermost context both users occupy so the right staff see it.
	contextID, ok := e.innermostShared(actorID, targetID)
	if !ok {
		return rejected(ActionReportUser, ReasonIllegalAction), nil
	}
	e.relations.Report(contextID.String(), actorID, targetID)
	return applied(ActionReportUser), nil
}

func (e *Engine) warnUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	contextID, ok := e.innermostAuthorized(actorID, targetID, access.PermWarnUser)
	if !ok {
		return rejected(ActionWarnUser, ReasonNoPermission), nil
	}
	if !e.outranksForDiscipline(actorID, targetID) {
		return rejected(ActionWarnUser, ReasonNoPermission), nil
	}
	w, err := e.space.Tree().WorldOf(contextID)
	if err != nil {
		return Result{Action: ActionWarnUser}, err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	// A warning resolves every outstanding report against the target on
	// the target's current chain.
	if area, err := e.space.AreaOf(targetID); err == nil {
		if chain, err := e.space.Tree().Ancestors(area.ID); err == nil {
			for _, id := range chain {
				e.relations.ClearReports(id.String(), targetID)
			}
		}
	}
	e.notify(ctx, targetID, tmplWarned, []string{actorID.String(), contextID.String()}, false)
	return applied(ActionWarnUser), nil
}

func (e *Engine) muteUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	contextID, ok := e.innermostAuthorized(actorID, targetID, access.PermMuteUser)
	if !ok {
		return rejected(ActionMuteUser, ReasonNoPermission), nil
	}
	if !e.outranksForDiscipline(actorID, targetID) {
		return rejected(ActionMuteUser, ReasonNoPermission), nil
	}
	w, err := e.space.Tree().WorldOf(contextID)
	if err != nil {
		return Result{Action: ActionMuteUser}, err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	// Checked under the lock so concurrent identical mutes cannot both
	// report applied.
	if e.relations.IsMuted(contextID.String(), targetID) {
		return rejected(ActionMuteUser, ReasonIllegalAction), nil
	}
	e.relations.Mute(contextID.String(), targetID)
	e.notify(ctx, targetID, tmplMuted, []string{contextID.String()}, false)
	return applied(ActionMuteUser), nil
}

func (e *Engine) unmuteUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	contextID, ok := e.innermostAuthorized(actorID, targetID, access.PermMuteUser)
	if !ok {
		return rejected(ActionUnmuteUser, ReasonNoPermission), nil
	}
	w, err := e.space.Tree().WorldOf(contextID)
	if err != nil {
		return Result{Action: ActionUnmuteUser}, err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	if !e.relations.IsMuted(contextID.String(), targetID) {
		return rejected(ActionUnmuteUser, ReasonIllegalAction), nil
	}
	e.relations.Unmute(contextID.String(), targetID)
	e.notify(ctx, targetID, tmplUnmuted, []string{contextID.String()}, false)
	return applied(ActionUnmuteUser), nil
}

func (e *Engine) banUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	w, err := e.sharedWorld(actorID, targetID)
	if err != nil {
		return Result{Action: ActionBanUser}, err
	}
	if !e.control.HasPermissionAt(actorID, w.ID.String(), access.PermBanUser) {
		return rejected(ActionBanUser, ReasonNoPermission), nil
	}
	if !e.outranksForDiscipline(actorID, targetID) {
		return rejected(ActionBanUser, ReasonNoPermission), nil
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	changed, err := e.space.Tree().SetBanned(w.ID, targetID, true)
	if err != nil {
		return Result{Action: ActionBanUser}, err
	}
	if !changed {
		return rejected(ActionBanUser, ReasonIllegalAction), nil
	}
	if err := e.space.Leave(targetID); err != nil {
		return Result{Action: ActionBanUser}, err
	}
	e.notify(ctx, targetID, tmplBanned, []string{w.ID.String(), actorID.String()}, false)
	return applied(ActionBanUser), nil
}

func (e *Engine) unbanUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	// The target is outside the world by definition, so the world is the
	// actor's.
	w, err := e.space.WorldOf(actorID)
	if err != nil {
		return Result{Action: ActionUnbanUser}, err
	}
	if !e.control.HasPermissionAt(actorID, w.ID.String(), access.PermBanUser) {
		return rejected(ActionUnbanUser, ReasonNoPermission), nil
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	changed, err := e.space.Tree().SetBanned(w.ID, targetID, false)
	if err != nil {
		return Result{Action: ActionUnbanUser}, err
	}
	if !changed {
		return rejected(ActionUnbanUser, ReasonIllegalAction), nil
	}
	e.notify(ctx, targetID, tmplUnbanned, []string{w.ID.String()}, false)
	return applied(ActionUnbanUser), nil
}

func (e *Engine) roomInvite(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	actor, err := e.space.Users().Get(actorID)
	if err != nil {
		return Result{Action: ActionRoomInvite}, err
	}
	if actor.Location == nil {
		return rejected(ActionRoomInvite, ReasonIllegalAction), nil
	}
	roomID := actor.Location.RoomID
	if !e.control.HasPermissionAt(actorID, roomID.String(), access.PermRoomInvite) {
		return rejected(ActionRoomInvite, ReasonNoPermission), nil
	}
	if e.relations.Ignores(targetID, actorID) {
		return rejected(ActionRoomInvite, ReasonIllegalAction), nil
	}
	e.notify(ctx, targetID, tmplRoomInvite, []string{actorID.String(), roomID.String()}, true)
	return applied(ActionRoomInvite), nil
}

func (e *Engine) roomKick(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	target, err := e.space.Users().Get(targetID)
	if err != nil {
		return Result{Action: ActionRoomKick}, err
	}
	if target.Location == nil {
		return rejected(ActionRoomKick, ReasonIllegalAction), nil
	}
	roomID := target.Location.RoomID
	w, err := e.space.Tree().WorldOf(roomID)
	if err != nil {
		return Result{Action: ActionRoomKick}, err
	}
	if roomID == w.ID {
		// Kicking out of the world's own floor has nowhere to send the
		// target; eviction from a world is a ban.
		return rejected(ActionRoomKick, ReasonIllegalAction), nil
	}
	if !e.control.HasPermissionAt(actorID, roomID.String(), access.PermRoomKick) {
		return rejected(ActionRoomKick, ReasonNoPermission), nil
	}
	if !e.outranksForDiscipline(actorID, targetID) {
		return rejected(ActionRoomKick, ReasonNoPermission), nil
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.space.Place(targetID, w.World.Spawn); err != nil {
		return Result{Action: ActionRoomKick}, err
	}
	e.notify(ctx, targetID, tmplRoomKicked, []string{roomID.String()}, false)
	return applied(ActionRoomKick), nil
}

func (e *Engine) teleportToUser(ctx context.Context, actorID, targetID ulid.ULID) (Result, error) {
	target, err := e.space.Users().Get(targetID)
	if err != nil {
		return Result{Action: ActionTeleport}, err
	}
	if target.Location == nil {
		return rejected(ActionTeleport, ReasonIllegalAction), nil
	}

	allowed := e.relations.AreFriends(actorID, targetID)
	if !allowed {
		_, allowed = e.innermostAuthorized(actorID, targetID, access.PermTeleportUser)
	}
	if !allowed {
		return rejected(ActionTeleport, ReasonNoPermission), nil
	}

	room, err := e.space.Tree().Resolve(target.Location.RoomID)
	if err != nil {
		return Result{Action: ActionTeleport}, err
	}
	if room.Room != nil && room.Room.PasswordHash != "" &&
		!e.control.HasPermissionAt(actorID, room.ID.String(), access.PermBypassLock) {
		return rejected(ActionTeleport, ReasonNoPermission), nil
	}

	w, err := e.space.Tree().WorldOf(room.ID)
	if err != nil {
		return Result{Action: ActionTeleport}, err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.space.Place(actorID, *target.Location); err != nil {
		if errors.Is(err, world.ErrIllegalState) {
			// Banned from the destination world.
			return rejected(ActionTeleport, ReasonIllegalAction), nil
		}
		return Result{Action: ActionTeleport}, err
	}
	e.notify(ctx, targetID, tmplTeleportArrived, []string{actorID.String()}, false)
	return applied(ActionTeleport), nil
}

func (e *Engine) assignWorldRole(ctx context.Context, actorID, targetID ulid.ULID, role access.Role, permission string, action Action) (Result, error) {
	w, err := e.sharedWorld(actorID, targetID)
	if err != nil {
		return Result{Action: action}, err
	}
	if !e.control.HasPermissionAt(actorID, w.ID.String(), permission) {
		return rejected(action, ReasonNoPermission), nil
	}
	if holdsRole(e.control.RolesAt(targetID, w.ID.String()), role) {
		return rejected(action, ReasonIllegalAction), nil
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.control.Assign(targetID, w.ID.String(), role); err != nil {
		return Result{Action: action}, err
	}
	e.notify(ctx, targetID, tmplRoleAssigned, []string{role.String(), w.ID.String()}, false)
	return applied(action), nil
}

func (e *Engine) withdrawWorldRole(ctx context.Context, actorID, targetID ulid.ULID, role access.Role, permission string, action Action) (Result, error) {
	w, err := e.sharedWorld(actorID, targetID)
	if err != nil {
		return Result{Action: action}, err
	}
	if !e.control.HasPermissionAt(actorID, w.ID.String(), permission) {
		return rejected(action, ReasonNoPermission), nil
	}
	if !holdsRole(e.control.RolesAt(targetID, w.ID.String()), role) {
		return rejected(action, ReasonIllegalAction), nil
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	e.control.Withdraw(targetID, w.ID.String(), role)
	e.notify(ctx, targetID, tmplRoleWithdrawn, []string{role.String(), w.ID.String()}, false)
	return applied(action), nil
}

func (e *Engine) assignAreaManager(ctx context.Context, actorID, targetID ulid.ULID, args []string) (Result, error) {
	areaID, res, err := e.areaArg(ActionAssignAreaMgr, args)
	if err != nil || !res.OK {
		return res, err
	}
	if !e.control.HasPermissionAt(actorID, areaID.String(), access.PermManageArea) {
		return rejected(ActionAssignAreaMgr, ReasonNoPermission), nil
	}
	if holdsRole(e.control.RolesAt(targetID, areaID.String()), access.RoleAreaManager) {
		return rejected(ActionAssignAreaMgr, ReasonIllegalAction), nil
	}
	if err := e.GrantAreaManager(targetID, areaID.String()); err != nil {
		return Result{Action: ActionAssignAreaMgr}, err
	}
	e.notify(ctx, targetID, tmplRoleAssigned, []string{access.RoleAreaManager.String(), areaID.String()}, false)
	return applied(ActionAssignAreaMgr), nil
}

func (e *Engine) withdrawAreaManager(ctx context.Context, actorID, targetID ulid.ULID, args []string) (Result, error) {
	areaID, res, err := e.areaArg(ActionRevokeAreaMgr, args)
	if err != nil || !res.OK {
		return res, err
	}
	if !e.control.HasPermissionAt(actorID, areaID.String(), access.PermManageArea) {
		return rejected(ActionRevokeAreaMgr, ReasonNoPermission), nil
	}
	if !holdsRole(e.control.RolesAt(targetID, areaID.String()), access.RoleAreaManager) {
		return rejected(ActionRevokeAreaMgr, ReasonIllegalAction), nil
	}
	if err := e.WithdrawAreaManager(targetID, areaID.String()); err != nil {
		return Result{Action: ActionRevokeAreaMgr}, err
	}
	e.notify(ctx, targetID, tmplRoleWithdrawn, []string{access.RoleAreaManager.String(), areaID.String()}, false)
	return applied(ActionRevokeAreaMgr), nil
}

// areaArg resolves the area context named by args[0]. The Result carry is
// OK unless the argument is missing or names a non-area context.
func (e *Engine) areaArg(action Action, args []string) (world.ContextID, Result, error) {
	if len(args) < 1 || args[0] == "" {
		return "", rejected(action, ReasonIllegalAction), nil
	}
	node, err := e.space.Tree().Resolve(world.ContextID(args[0]))
	if err != nil {
		return "", Result{Action: action}, err
	}
	if node.Kind != world.KindArea {
		return "", rejected(action, ReasonIllegalAction), nil
	}
	return node.ID, applied(action), nil
}

// GrantAreaManager assigns the area-manager role at the given area under the
// enclosing world's lock. The reservation scheduler calls this on start
// boundaries, so scheduled and manual role changes serialize identically.
func (e *Engine) GrantAreaManager(userID ulid.ULID, areaID string) error {
	w, err := e.space.Tree().WorldOf(world.ContextID(areaID))
	if err != nil {
		return err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	return e.control.Assign(userID, areaID, access.RoleAreaManager)
}

// WithdrawAreaManager removes the area-manager role at the given area under
// the enclosing world's lock.
func (e *Engine) WithdrawAreaManager(userID ulid.ULID, areaID string) error {
	w, err := e.space.Tree().WorldOf(world.ContextID(areaID))
	if err != nil {
		return err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	e.control.Withdraw(userID, areaID, access.RoleAreaManager)
	return nil
}

// SetAreaMusic starts or stops the track playing in an area; an empty track
// clears it. Like the area-manager grants this is not a user-on-user action,
// so it lives outside the Perform catalogue, gated on the area:music
// permission at the area.
func (e *Engine) SetAreaMusic(actorID ulid.ULID, areaID, track string) (Result, error) {
	if _, err := e.space.Users().Get(actorID); err != nil {
		return Result{Action: ActionSetMusic}, err
	}
	node, err := e.space.Tree().Resolve(world.ContextID(areaID))
	if err != nil {
		return Result{Action: ActionSetMusic}, err
	}
	if node.Kind != world.KindArea {
		res := rejected(ActionSetMusic, ReasonIllegalAction)
		recordOutcome(ActionSetMusic, res)
		return res, nil
	}
	if !e.control.HasPermissionAt(actorID, areaID, access.PermAreaMusic) {
		res := rejected(ActionSetMusic, ReasonNoPermission)
		recordOutcome(ActionSetMusic, res)
		return res, nil
	}
	w, err := e.space.Tree().WorldOf(node.ID)
	if err != nil {
		return Result{Action: ActionSetMusic}, err
	}

	mu := e.lockWorld(w.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.space.Tree().SetAreaMusic(node.ID, track); err != nil {
		return Result{Action: ActionSetMusic}, err
	}
	res := applied(ActionSetMusic)
	recordOutcome(ActionSetMusic, res)
	return res, nil
}

// innermostShared is innermostAuthorized without the permission gate: the
// deepest context on the actor's chain that also contains the target.
func (e *Engine) innermostShared(actorID, targetID ulid.ULID) (world.ContextID, bool) {
	area, err := e.space.AreaOf(actorID)
	if err != nil {
		return "", false
	}
	chain, err := e.space.Tree().Ancestors(area.ID)
	if err != nil {
		return "", false
	}
	for _, id := range chain {
		if e.space.Tree().Contains(id, targetID) {
			return id, true
		}
	}
	return "", false
}

func holdsRole(held []access.Role, role access.Role) bool {
	for _, r := range held {
		if r == role {
			return true
		}
	}
	return false
}
