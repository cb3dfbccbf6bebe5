// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/comm"
	"github.com/atriumworld/atrium/internal/geometry"
	"github.com/atriumworld/atrium/internal/world/mapdef"
)

// BuildWorld constructs a world context subtree under Global from a map
// skeleton. The whole build is rejected on the first invalid node, leaving
// no partial subtree behind.
func BuildWorld(tree *Tree, sk *mapdef.Skeleton) (*Context, error) {
	expanse := rectToExpanse(sk.Rect)
	w := &Context{
		Name: sk.Name,
		Kind: KindWorld,
		Area: &AreaState{
			Expanse:    &expanse,
			Region:     comm.AreaRegion{},
			RegionKind: comm.KindArea,
			Media:      comm.MediaSet{comm.MediumText: {}, comm.MediumVoice: {}, comm.MediumVideo: {}, comm.MediumEmote: {}},
		},
		Room:  &RoomState{Spawn: geometry.Point{X: sk.Spawn.X, Y: sk.Spawn.Y}},
		World: &WorldState{Banned: make(map[ulid.ULID]struct{})},
	}

	w, err := tree.AddChild(GlobalID, w)
	if err != nil {
		return nil, err
	}
	w.World.Spawn = Location{RoomID: w.ID, Pos: geometry.Point{X: sk.Spawn.X, Y: sk.Spawn.Y}}

	for _, node := range sk.Nodes {
		if err := buildNode(tree, w.ID, node); err != nil {
			// Tear the partial subtree down before reporting.
			_ = tree.RemoveChild(w.ID)
			return nil, err
		}
	}
	return w, nil
}

// BuildPrivateRoom creates a private room under the given world from a
// skeleton, owned by ownerID and optionally protected by passwordHash.
func BuildPrivateRoom(tree *Tree, worldID ContextID, sk *mapdef.Skeleton, ownerID ulid.ULID, passwordHash string) (*Context, error) {
	expanse := rectToExpanse(sk.Rect)
	room := &Context{
		Name: sk.Name,
		Kind: KindRoom,
		Area: &AreaState{
			Expanse:    &expanse,
			Region:     comm.AreaRegion{},
			RegionKind: comm.KindArea,
			Media:      comm.MediaSet{comm.MediumText: {}, comm.MediumVoice: {}, comm.MediumVideo: {}, comm.MediumEmote: {}},
		},
		Room: &RoomState{
			Private:      true,
			OwnerID:      ownerID,
			PasswordHash: passwordHash,
			Spawn:        geometry.Point{X: sk.Spawn.X, Y: sk.Spawn.Y},
		},
	}

	room, err := tree.AddChild(worldID, room)
	if err != nil {
		return nil, err
	}
	for _, node := range sk.Nodes {
		if err := buildNode(tree, room.ID, node); err != nil {
			_ = tree.RemoveChild(room.ID)
			return nil, err
		}
	}
	return room, nil
}

func buildNode(tree *Tree, parentID ContextID, node mapdef.Node) error {
	kind, err := nodeKind(node.Kind)
	if err != nil {
		return err
	}

	area := &AreaState{}
	if node.Rect != nil {
		expanse := rectToExpanse(*node.Rect)
		area.Expanse = &expanse
	}

	spec := comm.Spec{Kind: comm.KindArea}
	if node.Region != nil {
		spec = *node.Region
	}
	region, err := spec.Region()
	if err != nil {
		return oops.With("node", node.Name).Wrapf(err, "build node %q", node.Name)
	}
	area.Region = region
	area.RegionKind = spec.Kind

	media, err := comm.NewMediaSet(node.Media...)
	if err != nil {
		return oops.With("node", node.Name).Wrapf(err, "build node %q", node.Name)
	}
	area.Media = media

	child := &Context{Name: node.Name, Kind: kind, Area: area}
	switch kind {
	case KindRoom:
		child.Room = &RoomState{}
		if node.Rect != nil {
			child.Room.Spawn = geometry.Point{X: node.Rect.X, Y: node.Rect.Y}
		}
	case KindInteractable:
		child.Interactable = &InteractableState{MenuName: node.Menu}
	case KindGlobal, KindWorld, KindArea:
		// No extra payload.
	}

	child, err = tree.AddChild(parentID, child)
	if err != nil {
		return err
	}
	for _, sub := range node.Children {
		if err := buildNode(tree, child.ID, sub); err != nil {
			return err
		}
	}
	return nil
}

func nodeKind(s string) (Kind, error) {
	switch s {
	case "room":
		return KindRoom, nil
	case "area":
		return KindArea, nil
	case "interactable":
		return KindInteractable, nil
	default:
		return "", oops.With("kind", s).Wrap(ErrInvalidKind)
	}
}

func rectToExpanse(r mapdef.Rect) geometry.Expanse {
	return geometry.NewExpanse(r.X, r.Y, r.Width, r.Height)
}
