// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package comm

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/geometry"
)

// Kind selects a region policy implementation.
type Kind string

// Region policy kinds.
const (
	KindArea   Kind = "area"
	KindRadius Kind = "radius"
	KindParent Kind = "parent"
)

// ErrInvalidRegion is returned for malformed region specifications.
var ErrInvalidRegion = oops.Code("COMM_INVALID_REGION").Errorf("invalid communication region")

// World is the view of the spatial tree the region policies query.
// This mirrors the tree and registry surfaces to avoid coupling comm to the
// world package.
type World interface {
	// AreaOf returns the ID of the innermost area the user occupies.
	AreaOf(userID ulid.ULID) (string, bool)

	// RoomOf returns the ID of the room the user occupies.
	RoomOf(userID ulid.ULID) (string, bool)

	// PositionOf returns the user's tile position within their room.
	PositionOf(userID ulid.ULID) (geometry.Point, bool)

	// UsersIn returns the users contained at or below the context.
	UsersIn(contextID string) []ulid.ULID

	// ParentOf returns the parent context ID, or ok=false at the root.
	ParentOf(contextID string) (string, bool)

	// RegionKindOf returns the region policy kind configured for the context.
	RegionKindOf(contextID string) (Kind, bool)
}

// RelationFilter excludes user pairs from each other's communicable sets.
// A pair is blocked if either has the other ignored, or either is muted or
// banned in the relevant context.
type RelationFilter interface {
	Blocked(contextID string, a, b ulid.ULID) bool
}

// nullFilter blocks nothing.
type nullFilter struct{}

func (nullFilter) Blocked(string, ulid.ULID, ulid.ULID) bool { return false }

// NullFilter returns a RelationFilter that never blocks.
func NullFilter() RelationFilter { return nullFilter{} }

// Region computes the set of users the given user may communicate with.
type Region interface {
	Communicable(w World, f RelationFilter, userID ulid.ULID) []ulid.ULID
}

// Spec is the serializable form of a region policy, as found in map
// definitions.
type Spec struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// Region materializes the spec into a policy implementation.
func (s Spec) Region() (Region, error) {
	switch s.Kind {
	case KindArea:
		return AreaRegion{}, nil
	case KindRadius:
		if s.Radius <= 0 {
			return nil, oops.With("radius", s.Radius).Hint("radius must be positive").Wrap(ErrInvalidRegion)
		}
		return RadiusRegion{Radius: s.Radius}, nil
	case KindParent:
		return ParentRegion{}, nil
	default:
		return nil, oops.With("kind", string(s.Kind)).Wrap(ErrInvalidRegion)
	}
}

// AreaRegion makes every user in the querying user's current area
// communicable.
type AreaRegion struct{}

// Communicable implements Region.
func (AreaRegion) Communicable(w World, f RelationFilter, userID ulid.ULID) []ulid.ULID {
	areaID, ok := w.AreaOf(userID)
	if !ok {
		return nil
	}
	return collect(w, f, areaID, userID, func(other ulid.ULID) bool {
		otherArea, ok := w.AreaOf(other)
		return ok && otherArea == areaID
	})
}

// RadiusRegion makes every user in the same room within Euclidean distance
// Radius communicable.
type RadiusRegion struct {
	Radius float64
}

// Communicable implements Region.
func (r RadiusRegion) Communicable(w World, f RelationFilter, userID ulid.ULID) []ulid.ULID {
	roomID, ok := w.RoomOf(userID)
	if !ok {
		return nil
	}
	pos, ok := w.PositionOf(userID)
	if !ok {
		return nil
	}
	return collect(w, f, roomID, userID, func(other ulid.ULID) bool {
		otherRoom, ok := w.RoomOf(other)
		if !ok || otherRoom != roomID {
			return false
		}
		otherPos, ok := w.PositionOf(other)
		return ok && pos.DistanceTo(otherPos) <= r.Radius
	})
}

// ParentRegion makes every user contained in the nearest ancestor area that
// itself uses AreaRegion communicable.
type ParentRegion struct{}

// Communicable implements Region.
func (ParentRegion) Communicable(w World, f RelationFilter, userID ulid.ULID) []ulid.ULID {
	areaID, ok := w.AreaOf(userID)
	if !ok {
		return nil
	}
	anchor, ok := nearestAreaRegion(w, areaID)
	if !ok {
		return nil
	}
	return collect(w, f, anchor, userID, func(other ulid.ULID) bool { return true })
}

// nearestAreaRegion walks up from the context until it finds an ancestor
// whose configured policy kind is KindArea.
func nearestAreaRegion(w World, contextID string) (string, bool) {
	id, ok := w.ParentOf(contextID)
	for ok {
		if kind, known := w.RegionKindOf(id); known && kind == KindArea {
			return id, true
		}
		id, ok = w.ParentOf(id)
	}
	return "", false
}

// collect gathers users contained in scope that pass the predicate and the
// relation filter. The querying user is never part of their own set.
func collect(w World, f RelationFilter, scope string, self ulid.ULID, keep func(ulid.ULID) bool) []ulid.ULID {
	if f == nil {
		f = nullFilter{}
	}
	var out []ulid.ULID
	for _, other := range w.UsersIn(scope) {
		if other == self || !keep(other) {
			continue
		}
		if f.Blocked(scope, self, other) {
			continue
		}
		out = append(out, other)
	}
	return out
}
