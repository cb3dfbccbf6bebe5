// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

//go:build integration

package integration

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/admin"
	"github.com/atriumworld/atrium/internal/auth"
	"github.com/atriumworld/atrium/internal/comm"
	"github.com/atriumworld/atrium/internal/geometry"
	"github.com/atriumworld/atrium/internal/world"
)

// capturingSink records dispatched notifications for assertion.
type capturingSink struct {
	mu   sync.Mutex
	sent []admin.Notification
}

func (s *capturingSink) Notify(_ context.Context, n admin.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *capturingSink) templatesFor(target ulid.ULID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, n := range s.sent {
		if n.TargetID == target {
			keys = append(keys, n.TemplateKey)
		}
	}
	return keys
}

// park is a fully wired engine over a small world: the Park with a Disco
// area and a password-locked Lounge room.
type park struct {
	space     *world.Space
	control   *access.Control
	relations *admin.Relations
	sink      *capturingSink
	engine    *admin.Engine
	loungeKey string // plaintext of the lounge password
}

func buildPark() (*park, error) {
	tree := world.NewTree()

	worldExpanse := geometry.NewExpanse(0, 0, 100, 100)
	if _, err := tree.AddChild(world.GlobalID, &world.Context{
		Name: "Park",
		Kind: world.KindWorld,
		Area: &world.AreaState{Expanse: &worldExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
		Room: &world.RoomState{Spawn: geometry.Point{X: 5, Y: 5}},
		World: &world.WorldState{
			Banned: make(map[ulid.ULID]struct{}),
			Spawn:  world.Location{RoomID: "global.park", Pos: geometry.Point{X: 5, Y: 5}},
		},
	}); err != nil {
		return nil, err
	}

	discoExpanse := geometry.NewExpanse(10, 10, 40, 40)
	if _, err := tree.AddChild("global.park", &world.Context{
		Name: "Disco",
		Kind: world.KindArea,
		Area: &world.AreaState{Expanse: &discoExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
	}); err != nil {
		return nil, err
	}

	// The lounge is locked with a real argon2id hash.
	loungeKey := "velvet-rope"
	hash, err := auth.NewArgon2idHasher().Hash(loungeKey)
	if err != nil {
		return nil, err
	}
	loungeExpanse := geometry.NewExpanse(60, 60, 20, 20)
	if _, err := tree.AddChild("global.park", &world.Context{
		Name: "Lounge",
		Kind: world.KindRoom,
		Area: &world.AreaState{Expanse: &loungeExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
		Room: &world.RoomState{PasswordHash: hash, Spawn: geometry.Point{X: 65, Y: 65}},
	}); err != nil {
		return nil, err
	}

	space := world.NewSpace(tree, world.NewRegistry(), nil)
	control := access.NewControl(admin.SpaceLocator{Space: space})
	relations := admin.NewRelations()
	sink := &capturingSink{}
	engine := admin.NewEngine(admin.EngineConfig{
		Space:     space,
		Control:   control,
		Relations: relations,
		Notifier:  sink,
	})

	return &park{
		space:     space,
		control:   control,
		relations: relations,
		sink:      sink,
		engine:    engine,
		loungeKey: loungeKey,
	}, nil
}

// enter registers a user and places them in the park at (x, y).
func (p *park) enter(name string, x, y int) (ulid.ULID, error) {
	u := p.space.Users().Add(name)
	if err := p.space.Place(u.ID, world.Location{
		RoomID: "global.park",
		Pos:    geometry.Point{X: x, Y: y},
	}); err != nil {
		return ulid.ULID{}, err
	}
	return u.ID, nil
}
