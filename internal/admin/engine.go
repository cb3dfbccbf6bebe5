// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/world"
)

// EngineConfig holds the collaborators an Engine needs.
type EngineConfig struct {
	Space     *world.Space
	Control   *access.Control
	Relations *Relations
	Notifier  Notifier
	Clock     func() time.Time // nil means time.Now
}

// Engine validates and executes administrative actions. Mutations affecting
// a world's subtree are serialized by a per-world mutex, so actions on
// disjoint worlds never block each other. The reservation scheduler's role
// grants go through the same locks.
type Engine struct {
	space     *world.Space
	control   *access.Control
	relations *Relations
	notifier  Notifier
	clock     func() time.Time

	lockMu sync.Mutex
	locks  map[world.ContextID]*sync.Mutex
}

// NewEngine creates an engine from its collaborators.
func NewEngine(cfg EngineConfig) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		space:     cfg.Space,
		control:   cfg.Control,
		relations: cfg.Relations,
		notifier:  cfg.Notifier,
		clock:     clock,
		locks:     make(map[world.ContextID]*sync.Mutex),
	}
}

// Relations exposes the engine's relation state (for the communication
// filter and persistence snapshots).
func (e *Engine) Relations() *Relations { return e.relations }

// lockWorld returns the mutex serializing mutations under the given world.
func (e *Engine) lockWorld(worldID world.ContextID) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	mu, ok := e.locks[worldID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[worldID] = mu
	}
	return mu
}

// Perform validates and executes one administrative action by actorID on
// targetID. Precondition failures come back as a rejected Result; errors
// are reserved for structurally invalid requests (unknown user, unknown
// context, actor not located anywhere an action requires them to be).
func (e *Engine) Perform(ctx context.Context, actorID, targetID ulid.ULID, action Action, args []string) (Result, error) {
	if _, err := e.space.Users().Get(actorID); err != nil {
		return Result{Action: action}, err
	}
	if _, err := e.space.Users().Get(targetID); err != nil {
		return Result{Action: action}, err
	}
	if actorID == targetID {
		res := rejected(action, ReasonIllegalAction)
		recordOutcome(action, res)
		return res, nil
	}

	res, err := e.dispatch(ctx, actorID, targetID, action, args)
	if err == nil {
		recordOutcome(action, res)
	}
	return res, err
}

func (e *Engine) dispatch(ctx context.Context, actorID, targetID ulid.ULID, action Action, args []string) (Result, error) {
	switch action {
	case ActionInviteFriend:
		return e.inviteFriend(ctx, actorID, targetID)
	case ActionFriendAccept:
		return e.friendAccept(ctx, actorID, targetID)
	case ActionFriendReject:
		return e.friendReject(actorID, targetID)
	case ActionRemoveFriend:
		return e.removeFriend(ctx, actorID, targetID)
	case ActionIgnoreUser:
		return e.ignoreUser(actorID, targetID)
	case ActionUnignoreUser:
		return e.unignoreUser(actorID, targetID)
	case ActionReportUser:
		return e.reportUser(ctx, actorID, targetID)
	case ActionWarnUser:
		return e.warnUser(ctx, actorID, targetID)
	case ActionMuteUser:
		return e.muteUser(ctx, actorID, targetID)
	case ActionUnmuteUser:
		return e.unmuteUser(ctx, actorID, targetID)
	case ActionBanUser:
		return e.banUser(ctx, actorID, targetID)
	case ActionUnbanUser:
		return e.unbanUser(ctx, actorID, targetID)
	case ActionRoomInvite:
		return e.roomInvite(ctx, actorID, targetID)
	case ActionRoomKick:
		return e.roomKick(ctx, actorID, targetID)
	case ActionTeleport:
		return e.teleportToUser(ctx, actorID, targetID)
	case ActionAssignMod:
		return e.assignWorldRole(ctx, actorID, targetID, access.RoleModerator, access.PermAssignModerator, action)
	case ActionWithdrawMod:
		return e.withdrawWorldRole(ctx, actorID, targetID, access.RoleModerator, access.PermAssignModerator, action)
	case ActionAssignAdmin:
		return e.assignWorldRole(ctx, actorID, targetID, access.RoleAdministrator, access.PermAssignAdministrator, action)
	case ActionWithdrawAdmin:
		return e.withdrawWorldRole(ctx, actorID, targetID, access.RoleAdministrator, access.PermAssignAdministrator, action)
	case ActionAssignAreaMgr:
		return e.assignAreaManager(ctx, actorID, targetID, args)
	case ActionRevokeAreaMgr:
		return e.withdrawAreaManager(ctx, actorID, targetID, args)
	default:
		return Result{Action: action}, oops.
			Code("UNKNOWN_ACTION").
			With("action", string(action)).
			Errorf("unknown administrative action")
	}
}

// notify enqueues one notification; nil notifiers are allowed in tests.
func (e *Engine) notify(ctx context.Context, targetID ulid.ULID, templateKey string, args []string, actionable bool) {
	if e.notifier == nil {
		return
	}
	// Dispatching is fire-and-forget; the error surface exists for sinks,
	// not for the engine.
	_ = e.notifier.Notify(ctx, Notification{
		TargetID:    targetID,
		TemplateKey: templateKey,
		Args:        args,
		Timestamp:   e.clock(),
		Actionable:  actionable,
	})
}

// sharedWorld returns the world both users currently occupy, or
// ErrIllegalState if either is unlocated or the worlds differ.
func (e *Engine) sharedWorld(actorID, targetID ulid.ULID) (*world.Context, error) {
	aw, err := e.space.WorldOf(actorID)
	if err != nil {
		return nil, err
	}
	tw, err := e.space.WorldOf(targetID)
	if err != nil {
		return nil, err
	}
	if aw.ID != tw.ID {
		return nil, oops.
			With("actor_world", aw.ID.String()).
			With("target_world", tw.ID.String()).
			Hint("users are in different worlds").
			Wrap(world.ErrIllegalState)
	}
	return aw, nil
}

// innermostAuthorized finds the deepest context containing both users where
// the actor holds the permission, walking the actor's chain from the inside
// out. ok=false means no shared context grants the permission.
func (e *Engine) innermostAuthorized(actorID, targetID ulid.ULID, permission string) (world.ContextID, bool) {
	area, err := e.space.AreaOf(actorID)
	if err != nil {
		return "", false
	}
	chain, err := e.space.Tree().Ancestors(area.ID)
	if err != nil {
		return "", false
	}
	for _, id := range chain {
		if !e.space.Tree().Contains(id, targetID) {
			continue
		}
		if e.control.HasPermissionAt(actorID, id.String(), permission) {
			return id, true
		}
	}
	return "", false
}

// outranksForDiscipline enforces the counter-hierarchy on disciplinary
// actions (mute, ban, kick, warn): a performer may never touch an owner; a
// target holding the ban-moderators permission requires the performer to
// hold it too; a ban-capable target must rank strictly below the performer
// unless the performer holds the ban-moderators permission.
func (e *Engine) outranksForDiscipline(actorID, targetID ulid.ULID) bool {
	if e.control.HasRole(targetID, access.RoleOwner) {
		return false
	}
	actorBansMods := e.control.HasPermission(actorID, access.PermBanModerator)
	if e.control.HasPermission(targetID, access.PermBanModerator) && !actorBansMods {
		return false
	}
	if actorBansMods {
		return true
	}
	if e.control.HasPermission(targetID, access.PermBanUser) {
		return access.AuthorityRank(e.control.HighestRole(targetID)) <
			access.AuthorityRank(e.control.HighestRole(actorID))
	}
	return true
}

// SpaceLocator adapts a world.Space to access.Locator.
type SpaceLocator struct {
	Space *world.Space
}

// AreaOf implements access.Locator.
func (l SpaceLocator) AreaOf(userID ulid.ULID) (string, error) {
	area, err := l.Space.AreaOf(userID)
	if err != nil {
		return "", err
	}
	return area.ID.String(), nil
}

// Ancestors implements access.Locator.
func (l SpaceLocator) Ancestors(contextID string) ([]string, error) {
	chain, err := l.Space.Tree().Ancestors(world.ContextID(contextID))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(chain))
	for i, id := range chain {
		out[i] = id.String()
	}
	return out, nil
}
