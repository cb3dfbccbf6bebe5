// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package world contains the spatial context tree and the user registry.
//
// Contexts form a strict tree rooted at the Global context. The tree is an
// arena keyed by stable dot-path identifiers; parent/child relationships are
// stored as ID links, never as pointers held by callers.
package world

import (
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/comm"
	"github.com/atriumworld/atrium/internal/geometry"
)

// GlobalID is the identifier of the root context.
const GlobalID ContextID = "global"

// ContextID is the dot-path of ancestor names, unique across the tree.
type ContextID string

// String returns the string form of the ID.
func (id ContextID) String() string { return string(id) }

// Child derives the ID a child named name would have under this context.
// Names are lowercased; spaces become underscores.
func (id ContextID) Child(name string) ContextID {
	slug := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	return ContextID(string(id) + "." + slug)
}

// Kind identifies what a context node represents.
type Kind string

// Context kinds.
const (
	KindGlobal       Kind = "global"
	KindWorld        Kind = "world"
	KindRoom         Kind = "room"
	KindArea         Kind = "area"
	KindInteractable Kind = "interactable"
)

// Validate checks that the kind is one of the known values.
func (k Kind) Validate() error {
	switch k {
	case KindGlobal, KindWorld, KindRoom, KindArea, KindInteractable:
		return nil
	default:
		return oops.With("kind", string(k)).Wrap(ErrInvalidKind)
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string { return string(k) }

// Spatial reports whether contexts of this kind carry an area payload.
func (k Kind) Spatial() bool { return k != KindGlobal }

// Location is a user's position: a room plus tile coordinates within it.
type Location struct {
	RoomID ContextID
	Pos    geometry.Point
}

// AreaState is the spatial payload shared by worlds, rooms, areas and
// interactables.
type AreaState struct {
	Expanse    *geometry.Expanse
	Region     comm.Region
	RegionKind comm.Kind
	Media      comm.MediaSet
	Music      string // currently playing track, empty if none
}

// RoomState is the payload of room and world contexts.
type RoomState struct {
	Private      bool
	OwnerID      ulid.ULID
	PasswordHash string // empty means the room is unlocked
	Spawn        geometry.Point
}

// WorldState is the payload of world contexts.
type WorldState struct {
	Banned map[ulid.ULID]struct{}
	Spawn  Location
}

// InteractableState is the payload of interactable contexts.
type InteractableState struct {
	MenuName string // menu definition reference, empty if none
}

// Context is a node in the spatial containment tree.
//
// Exactly one payload set is populated for each kind: global has none,
// worlds have Area+Room+World, rooms have Area+Room, areas have Area, and
// interactables have Area+Interactable. Parent is fixed at creation and
// never reassigned; moving a subtree means detach and reattach.
type Context struct {
	ID       ContextID
	Name     string
	Kind     Kind
	ParentID ContextID // empty only for the Global root
	Children []ContextID

	Area         *AreaState
	Room         *RoomState
	World        *WorldState
	Interactable *InteractableState

	// contained is owned by the Tree; read it through Tree.Contained and
	// Tree.Contains, which take the tree lock.
	contained map[ulid.ULID]struct{}
}

// IsRoot reports whether this is the Global context.
func (c *Context) IsRoot() bool { return c.ParentID == "" }
