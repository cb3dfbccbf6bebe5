// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import (
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/comm"
	"github.com/atriumworld/atrium/internal/geometry"
)

// PresenceSink receives tree membership changes. Calls are fire-and-forget;
// implementations must not block.
type PresenceSink interface {
	UserEnteredContext(userID ulid.ULID, contextID ContextID)
	UserLeftContext(userID ulid.ULID, contextID ContextID)
}

// Space binds the context tree to the user registry: it translates location
// changes into containment-chain membership updates and presence events.
type Space struct {
	tree  *Tree
	users *Registry
	sink  PresenceSink
}

// NewSpace creates a space. A nil sink disables presence notifications.
func NewSpace(tree *Tree, users *Registry, sink PresenceSink) *Space {
	return &Space{tree: tree, users: users, sink: sink}
}

// Tree returns the underlying context tree.
func (s *Space) Tree() *Tree { return s.tree }

// Users returns the underlying user registry.
func (s *Space) Users() *Registry { return s.users }

// AreaOf returns the innermost context the user occupies: the deepest area
// containing their position, falling back to the room itself.
// Returns ErrIllegalState if the user has no location.
func (s *Space) AreaOf(userID ulid.ULID) (*Context, error) {
	u, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if u.Location == nil {
		return nil, oops.With("user_id", userID.String()).Hint("user is not in any world").Wrap(ErrIllegalState)
	}
	return s.tree.AreaContaining(u.Location.RoomID, u.Location.Pos)
}

// WorldOf returns the world context enclosing the user's current location.
func (s *Space) WorldOf(userID ulid.ULID) (*Context, error) {
	u, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if u.Location == nil {
		return nil, oops.With("user_id", userID.String()).Hint("user is not in any world").Wrap(ErrIllegalState)
	}
	return s.tree.WorldOf(u.Location.RoomID)
}

// Place moves the user to loc, updating containment membership along the
// old and new ancestor chains and emitting presence events for the
// difference. Entering a world whose ban set holds the user is rejected
// with ErrIllegalState.
func (s *Space) Place(userID ulid.ULID, loc Location) error {
	u, err := s.users.Get(userID)
	if err != nil {
		return err
	}

	area, err := s.tree.AreaContaining(loc.RoomID, loc.Pos)
	if err != nil {
		return err
	}
	newChain, err := s.tree.Ancestors(area.ID)
	if err != nil {
		return err
	}

	if w, err := s.tree.WorldOf(loc.RoomID); err == nil && s.tree.IsBanned(w.ID, userID) {
		return oops.
			With("user_id", userID.String()).
			With("world_id", w.ID.String()).
			Hint("user is banned from this world").
			Wrap(ErrIllegalState)
	}

	oldChain := s.chainFor(u)

	if err := s.users.SetLocation(userID, &loc); err != nil {
		return err
	}
	left, entered := s.tree.setMembership(userID, oldChain, newChain)
	s.emit(userID, left, entered)
	s.reapPrivateRooms(oldChain)
	return nil
}

// Leave removes the user from all contexts, e.g. on disconnect or world
// exit. The registry entry survives; only the location is cleared.
func (s *Space) Leave(userID ulid.ULID) error {
	u, err := s.users.Get(userID)
	if err != nil {
		return err
	}
	oldChain := s.chainFor(u)
	if err := s.users.SetLocation(userID, nil); err != nil {
		return err
	}
	left, _ := s.tree.setMembership(userID, oldChain, nil)
	s.emit(userID, left, nil)
	s.reapPrivateRooms(oldChain)
	return nil
}

// chainFor returns the user's current ancestor chain, or nil if locationless.
func (s *Space) chainFor(u *User) []ContextID {
	if u.Location == nil {
		return nil
	}
	area, err := s.tree.AreaContaining(u.Location.RoomID, u.Location.Pos)
	if err != nil {
		return nil
	}
	chain, err := s.tree.Ancestors(area.ID)
	if err != nil {
		return nil
	}
	return chain
}

func (s *Space) emit(userID ulid.ULID, left, entered []ContextID) {
	if s.sink == nil {
		return
	}
	for _, id := range left {
		s.sink.UserLeftContext(userID, id)
	}
	for _, id := range entered {
		s.sink.UserEnteredContext(userID, id)
	}
}

// reapPrivateRooms destroys private rooms on the chain that just lost their
// last occupant.
func (s *Space) reapPrivateRooms(chain []ContextID) {
	for _, id := range chain {
		node, err := s.tree.Resolve(id)
		if err != nil {
			continue
		}
		if node.Kind != KindRoom || node.Room == nil || !node.Room.Private {
			continue
		}
		if len(s.tree.Contained(id)) > 0 {
			continue
		}
		if err := s.tree.RemoveChild(id); err != nil {
			slog.Warn("failed to tear down empty private room",
				"context_id", id.String(),
				"error", err,
			)
		}
	}
}

// CommView adapts a Space to the comm.World interface.
type CommView struct {
	Space *Space
}

// AreaOf implements comm.World.
func (v CommView) AreaOf(userID ulid.ULID) (string, bool) {
	area, err := v.Space.AreaOf(userID)
	if err != nil {
		return "", false
	}
	return area.ID.String(), true
}

// RoomOf implements comm.World.
func (v CommView) RoomOf(userID ulid.ULID) (string, bool) {
	u, err := v.Space.users.Get(userID)
	if err != nil || u.Location == nil {
		return "", false
	}
	return u.Location.RoomID.String(), true
}

// PositionOf implements comm.World.
func (v CommView) PositionOf(userID ulid.ULID) (geometry.Point, bool) {
	u, err := v.Space.users.Get(userID)
	if err != nil || u.Location == nil {
		return geometry.Point{}, false
	}
	return u.Location.Pos, true
}

// UsersIn implements comm.World.
func (v CommView) UsersIn(contextID string) []ulid.ULID {
	return v.Space.tree.Contained(ContextID(contextID))
}

// ParentOf implements comm.World.
func (v CommView) ParentOf(contextID string) (string, bool) {
	node, err := v.Space.tree.Resolve(ContextID(contextID))
	if err != nil || node.IsRoot() {
		return "", false
	}
	return node.ParentID.String(), true
}

// RegionKindOf implements comm.World.
func (v CommView) RegionKindOf(contextID string) (comm.Kind, bool) {
	node, err := v.Space.tree.Resolve(ContextID(contextID))
	if err != nil || node.Area == nil || node.Area.RegionKind == "" {
		return "", false
	}
	return node.Area.RegionKind, true
}
