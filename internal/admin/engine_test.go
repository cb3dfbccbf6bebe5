// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/admin"
	"github.com/atriumworld/atrium/internal/comm"
	"github.com/atriumworld/atrium/internal/geometry"
	"github.com/atriumworld/atrium/internal/world"
)

// recordingNotifier captures notifications synchronously.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []admin.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note admin.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) templatesFor(target ulid.ULID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var keys []string
	for _, note := range n.sent {
		if note.TargetID == target {
			keys = append(keys, note.TemplateKey)
		}
	}
	return keys
}

// fixture is a park world with a disco area and a locked lounge room.
type fixture struct {
	tree      *world.Tree
	space     *world.Space
	control   *access.Control
	relations *admin.Relations
	notifier  *recordingNotifier
	engine    *admin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tree := world.NewTree()
	worldExpanse := geometry.NewExpanse(0, 0, 100, 100)
	_, err := tree.AddChild(world.GlobalID, &world.Context{
		Name: "Park",
		Kind: world.KindWorld,
		Area: &world.AreaState{Expanse: &worldExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
		Room: &world.RoomState{Spawn: geometry.Point{X: 5, Y: 5}},
		World: &world.WorldState{
			Banned: make(map[ulid.ULID]struct{}),
			Spawn:  world.Location{RoomID: "global.park", Pos: geometry.Point{X: 5, Y: 5}},
		},
	})
	require.NoError(t, err)

	discoExpanse := geometry.NewExpanse(10, 10, 40, 40)
	_, err = tree.AddChild("global.park", &world.Context{
		Name: "Disco",
		Kind: world.KindArea,
		Area: &world.AreaState{Expanse: &discoExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
	})
	require.NoError(t, err)

	loungeExpanse := geometry.NewExpanse(60, 60, 20, 20)
	_, err = tree.AddChild("global.park", &world.Context{
		Name: "Lounge",
		Kind: world.KindRoom,
		Area: &world.AreaState{Expanse: &loungeExpanse, Region: comm.AreaRegion{}, RegionKind: comm.KindArea},
		Room: &world.RoomState{PasswordHash: "argon2id-hash", Spawn: geometry.Point{X: 65, Y: 65}},
	})
	require.NoError(t, err)

	space := world.NewSpace(tree, world.NewRegistry(), nil)
	control := access.NewControl(admin.SpaceLocator{Space: space})
	relations := admin.NewRelations()
	notifier := &recordingNotifier{}
	engine := admin.NewEngine(admin.EngineConfig{
		Space:     space,
		Control:   control,
		Relations: relations,
		Notifier:  notifier,
	})
	return &fixture{
		tree:      tree,
		space:     space,
		control:   control,
		relations: relations,
		notifier:  notifier,
		engine:    engine,
	}
}

// user registers a new user placed at (x, y) in the given room. A negative x
// leaves the user unlocated.
func (f *fixture) user(t *testing.T, name string, room world.ContextID, x, y int) ulid.ULID {
	t.Helper()
	u := f.space.Users().Add(name)
	if x >= 0 {
		require.NoError(t, f.space.Place(u.ID, world.Location{RoomID: room, Pos: geometry.Point{X: x, Y: y}}))
	}
	return u.ID
}

func (f *fixture) grant(t *testing.T, userID ulid.ULID, contextID string, role access.Role) {
	t.Helper()
	require.NoError(t, f.control.Assign(userID, contextID, role))
}

func (f *fixture) perform(t *testing.T, actor, target ulid.ULID, action admin.Action, args ...string) admin.Result {
	t.Helper()
	res, err := f.engine.Perform(context.Background(), actor, target, action, args)
	require.NoError(t, err)
	return res
}

func TestEngine_FriendLifecycle(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	// Accepting with no pending invite is illegal.
	res := f.perform(t, bob, alice, admin.ActionFriendAccept)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)

	res = f.perform(t, alice, bob, admin.ActionInviteFriend)
	assert.True(t, res.OK)
	assert.Contains(t, f.notifier.templatesFor(bob), "friend.invite")

	res = f.perform(t, bob, alice, admin.ActionFriendAccept)
	assert.True(t, res.OK)
	assert.True(t, f.relations.AreFriends(alice, bob))

	// A second invite while already friends is illegal.
	res = f.perform(t, alice, bob, admin.ActionInviteFriend)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)

	res = f.perform(t, alice, bob, admin.ActionRemoveFriend)
	assert.True(t, res.OK)
	assert.False(t, f.relations.AreFriends(alice, bob))
}

func TestEngine_FriendReject(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	f.perform(t, alice, bob, admin.ActionInviteFriend)
	res := f.perform(t, bob, alice, admin.ActionFriendReject)
	assert.True(t, res.OK)
	assert.False(t, f.relations.AreFriends(alice, bob))

	// The invite is consumed; accepting afterwards is illegal.
	res = f.perform(t, bob, alice, admin.ActionFriendAccept)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_InviteFriend_ClearsOwnIgnore(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	f.perform(t, alice, bob, admin.ActionIgnoreUser)
	require.True(t, f.relations.Ignores(alice, bob))

	res := f.perform(t, alice, bob, admin.ActionInviteFriend)
	assert.True(t, res.OK)
	assert.False(t, f.relations.Ignores(alice, bob), "sending an invite implies no longer ignoring")
}

func TestEngine_InviteFriend_BlockedByTargetIgnore(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	f.perform(t, bob, alice, admin.ActionIgnoreUser)

	res := f.perform(t, alice, bob, admin.ActionInviteFriend)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_IgnoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	f.perform(t, alice, bob, admin.ActionInviteFriend)
	f.perform(t, bob, alice, admin.ActionFriendAccept)
	require.True(t, f.relations.AreFriends(alice, bob))

	res := f.perform(t, alice, bob, admin.ActionIgnoreUser)
	assert.True(t, res.OK)
	assert.False(t, f.relations.AreFriends(alice, bob), "ignoring severs the friendship")
	assert.True(t, f.relations.Ignores(alice, bob))

	res = f.perform(t, alice, bob, admin.ActionUnignoreUser)
	assert.True(t, res.OK)
	assert.False(t, f.relations.Ignores(alice, bob))
	assert.False(t, f.relations.AreFriends(alice, bob), "unignore clears the flag only, it does not restore friendship")
}

func TestEngine_SelfActionRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)

	res := f.perform(t, alice, alice, admin.ActionInviteFriend)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_UnknownUsersAreErrors(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)

	_, err := f.engine.Perform(context.Background(), alice, ulid.Make(), admin.ActionInviteFriend, nil)
	assert.ErrorIs(t, err, world.ErrUserNotFound)

	_, err = f.engine.Perform(context.Background(), ulid.Make(), alice, admin.ActionInviteFriend, nil)
	assert.ErrorIs(t, err, world.ErrUserNotFound)
}

func TestEngine_Report(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	offline := f.user(t, "offline", "", -1, -1)

	res := f.perform(t, alice, bob, admin.ActionReportUser)
	assert.True(t, res.OK)
	assert.Equal(t, []ulid.ULID{alice}, f.relations.ReportersOf("global.park.disco", bob))

	// No shared context with an unlocated target.
	res = f.perform(t, alice, offline, admin.ActionReportUser)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_Warn(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	peer := f.user(t, "peer", "global.park", 21, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	f.perform(t, peer, bob, admin.ActionReportUser)
	require.NotEmpty(t, f.relations.ReportersOf("global.park.disco", bob))

	res := f.perform(t, peer, bob, admin.ActionWarnUser)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, mod, bob, admin.ActionWarnUser)
	assert.True(t, res.OK)
	assert.Empty(t, f.relations.ReportersOf("global.park.disco", bob), "a warning resolves outstanding reports")
	assert.Contains(t, f.notifier.templatesFor(bob), "discipline.warned")
}

func TestEngine_MuteUnmute(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	peer := f.user(t, "peer", "global.park", 21, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	res := f.perform(t, peer, bob, admin.ActionMuteUser)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	// The mute lands on the innermost context shared by both users: the
	// disco, not the whole park.
	res = f.perform(t, mod, bob, admin.ActionMuteUser)
	assert.True(t, res.OK)
	assert.True(t, f.relations.IsMuted("global.park.disco", bob))
	assert.False(t, f.relations.IsMuted("global.park", bob))

	res = f.perform(t, mod, bob, admin.ActionMuteUser)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)

	res = f.perform(t, mod, bob, admin.ActionUnmuteUser)
	assert.True(t, res.OK)
	assert.False(t, f.relations.IsMuted("global.park.disco", bob))

	res = f.perform(t, mod, bob, admin.ActionUnmuteUser)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_Mute_ConcurrentDuplicatesApplyOnce(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	const callers = 8
	results := make(chan admin.Result, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			res, err := f.engine.Perform(context.Background(), mod, bob, admin.ActionMuteUser, nil)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	for res := range results {
		if res.OK {
			applied++
		} else {
			assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
		}
	}
	assert.Equal(t, 1, applied)
	assert.True(t, f.relations.IsMuted("global.park.disco", bob))
}

func TestEngine_DisciplineCounterHierarchy(t *testing.T) {
	f := newFixture(t)
	modA := f.user(t, "mod_a", "global.park", 20, 20)
	modB := f.user(t, "mod_b", "global.park", 21, 20)
	adm := f.user(t, "adm", "global.park", 22, 20)
	own := f.user(t, "own", "global.park", 23, 20)
	f.grant(t, modA, "global.park", access.RoleModerator)
	f.grant(t, modB, "global.park", access.RoleModerator)
	f.grant(t, adm, "global.park", access.RoleAdministrator)
	f.grant(t, own, "global.park", access.RoleOwner)

	tests := []struct {
		name   string
		actor  ulid.ULID
		target ulid.ULID
		reason admin.RejectReason
	}{
		{"moderator cannot mute a peer moderator", modA, modB, admin.ReasonNoPermission},
		{"moderator cannot mute an administrator", modA, adm, admin.ReasonNoPermission},
		{"administrator can mute a moderator", adm, modA, admin.ReasonNone},
		{"administrator cannot mute the owner", adm, own, admin.ReasonNoPermission},
		{"owner can mute an administrator", own, adm, admin.ReasonNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.perform(t, tt.actor, tt.target, admin.ActionMuteUser)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.reason == admin.ReasonNone, res.OK)
		})
	}
}

func TestEngine_BanEvictsAndBlocksReentry(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	res := f.perform(t, mod, bob, admin.ActionBanUser)
	assert.True(t, res.OK)

	u, err := f.space.Users().Get(bob)
	require.NoError(t, err)
	assert.Nil(t, u.Location, "a banned user is evicted from the world")

	err = f.space.Place(bob, world.Location{RoomID: "global.park", Pos: geometry.Point{X: 5, Y: 5}})
	assert.ErrorIs(t, err, world.ErrIllegalState)

	res = f.perform(t, mod, bob, admin.ActionUnbanUser)
	assert.True(t, res.OK)
	assert.NoError(t, f.space.Place(bob, world.Location{RoomID: "global.park", Pos: geometry.Point{X: 5, Y: 5}}))
}

func TestEngine_Ban_CounterHierarchy(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	adm := f.user(t, "adm", "global.park", 21, 20)
	own := f.user(t, "own", "global.park", 23, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)
	f.grant(t, adm, "global.park", access.RoleAdministrator)
	f.grant(t, own, "global.park", access.RoleOwner)

	res := f.perform(t, mod, adm, admin.ActionBanUser)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, adm, own, admin.ActionBanUser)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, adm, mod, admin.ActionBanUser)
	assert.True(t, res.OK)
}

func TestEngine_Unban_NotBanned(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	res := f.perform(t, mod, bob, admin.ActionUnbanUser)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_RoomInvite(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host", "global.park.lounge", 65, 65)
	bob := f.user(t, "bob", "global.park", 22, 20)
	peer := f.user(t, "peer", "global.park.lounge", 66, 65)
	f.grant(t, host, "global.park.lounge", access.RoleRoomOwner)

	res := f.perform(t, peer, bob, admin.ActionRoomInvite)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, host, bob, admin.ActionRoomInvite)
	assert.True(t, res.OK)
	assert.Contains(t, f.notifier.templatesFor(bob), "room.invite")
}

func TestEngine_RoomKick(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park.lounge", 65, 65)
	floor := f.user(t, "floor", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	res := f.perform(t, mod, bob, admin.ActionRoomKick)
	assert.True(t, res.OK)

	u, err := f.space.Users().Get(bob)
	require.NoError(t, err)
	require.NotNil(t, u.Location)
	assert.Equal(t, world.ContextID("global.park"), u.Location.RoomID, "kicked users land at the world spawn")
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, u.Location.Pos)

	// The world floor itself is not kickable-out-of.
	res = f.perform(t, mod, floor, admin.ActionRoomKick)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_Teleport(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 5, 5)
	bob := f.user(t, "bob", "global.park", 22, 20)

	res := f.perform(t, alice, bob, admin.ActionTeleport)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	f.relations.Befriend(alice, bob)
	res = f.perform(t, alice, bob, admin.ActionTeleport)
	assert.True(t, res.OK)

	u, err := f.space.Users().Get(alice)
	require.NoError(t, err)
	require.NotNil(t, u.Location)
	assert.Equal(t, geometry.Point{X: 22, Y: 20}, u.Location.Pos)
}

func TestEngine_Teleport_ByPermission(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod", "global.park", 5, 5)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, mod, "global.park", access.RoleModerator)

	res := f.perform(t, mod, bob, admin.ActionTeleport)
	assert.True(t, res.OK)
}

func TestEngine_Teleport_LockedRoomNeedsBypass(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 5, 5)
	adm := f.user(t, "adm", "global.park", 6, 5)
	bob := f.user(t, "bob", "global.park.lounge", 65, 65)
	f.grant(t, adm, "global.park", access.RoleAdministrator)

	f.relations.Befriend(alice, bob)
	res := f.perform(t, alice, bob, admin.ActionTeleport)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason, "friendship does not open a locked room")

	f.relations.Befriend(adm, bob)
	res = f.perform(t, adm, bob, admin.ActionTeleport)
	assert.True(t, res.OK)
}

func TestEngine_Teleport_UnlocatedTarget(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 5, 5)
	offline := f.user(t, "offline", "", -1, -1)

	f.relations.Befriend(alice, offline)
	res := f.perform(t, alice, offline, admin.ActionTeleport)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)
}

func TestEngine_AssignWithdrawModerator(t *testing.T) {
	f := newFixture(t)
	adm := f.user(t, "adm", "global.park", 20, 20)
	peer := f.user(t, "peer", "global.park", 21, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, adm, "global.park", access.RoleAdministrator)

	res := f.perform(t, peer, bob, admin.ActionAssignMod)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, adm, bob, admin.ActionAssignMod)
	assert.True(t, res.OK)
	assert.True(t, f.control.HasRole(bob, access.RoleModerator))
	assert.Contains(t, f.notifier.templatesFor(bob), "role.assigned")

	res = f.perform(t, adm, bob, admin.ActionAssignMod)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason, "already held")

	res = f.perform(t, adm, bob, admin.ActionWithdrawMod)
	assert.True(t, res.OK)
	assert.False(t, f.control.HasRole(bob, access.RoleModerator))

	res = f.perform(t, adm, bob, admin.ActionWithdrawMod)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason, "not held")
}

func TestEngine_AssignAdministrator_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	adm := f.user(t, "adm", "global.park", 20, 20)
	own := f.user(t, "own", "global.park", 21, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, adm, "global.park", access.RoleAdministrator)
	f.grant(t, own, "global.park", access.RoleOwner)

	res := f.perform(t, adm, bob, admin.ActionAssignAdmin)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, own, bob, admin.ActionAssignAdmin)
	assert.True(t, res.OK)
	assert.True(t, f.control.HasRole(bob, access.RoleAdministrator))
}

func TestEngine_AreaManagerAssignment(t *testing.T) {
	f := newFixture(t)
	adm := f.user(t, "adm", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	peer := f.user(t, "peer", "global.park", 23, 20)
	f.grant(t, adm, "global.park", access.RoleAdministrator)

	res := f.perform(t, peer, bob, admin.ActionAssignAreaMgr, "global.park.disco")
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res = f.perform(t, adm, bob, admin.ActionAssignAreaMgr, "global.park.disco")
	assert.True(t, res.OK)
	assert.True(t, f.control.HasPermissionAt(bob, "global.park.disco", access.PermAreaMusic))

	res = f.perform(t, adm, bob, admin.ActionAssignAreaMgr, "global.park.disco")
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason)

	res = f.perform(t, adm, bob, admin.ActionRevokeAreaMgr, "global.park.disco")
	assert.True(t, res.OK)
	assert.False(t, f.control.HasPermissionAt(bob, "global.park.disco", access.PermAreaMusic))
}

func TestEngine_AreaManagerAssignment_BadArgs(t *testing.T) {
	f := newFixture(t)
	adm := f.user(t, "adm", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)
	f.grant(t, adm, "global.park", access.RoleAdministrator)

	res := f.perform(t, adm, bob, admin.ActionAssignAreaMgr)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason, "missing area argument")

	res = f.perform(t, adm, bob, admin.ActionAssignAreaMgr, "global.park.lounge")
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason, "not an area")

	_, err := f.engine.Perform(context.Background(), adm, bob, admin.ActionAssignAreaMgr, []string{"global.nowhere"})
	assert.ErrorIs(t, err, world.ErrContextNotFound)
}

func TestEngine_SetAreaMusic(t *testing.T) {
	f := newFixture(t)
	adm := f.user(t, "adm", "global.park", 20, 20)
	mgr := f.user(t, "mgr", "global.park", 22, 20)
	peer := f.user(t, "peer", "global.park", 23, 20)
	f.grant(t, adm, "global.park", access.RoleAdministrator)
	require.True(t, f.perform(t, adm, mgr, admin.ActionAssignAreaMgr, "global.park.disco").OK)

	res, err := f.engine.SetAreaMusic(peer, "global.park.disco", "vinyl/funk-45")
	require.NoError(t, err)
	assert.Equal(t, admin.ReasonNoPermission, res.Reason)

	res, err = f.engine.SetAreaMusic(mgr, "global.park.disco", "vinyl/funk-45")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "vinyl/funk-45", f.tree.AreaMusic("global.park.disco"))

	// An empty track stops the music.
	res, err = f.engine.SetAreaMusic(mgr, "global.park.disco", "")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, f.tree.AreaMusic("global.park.disco"))

	res, err = f.engine.SetAreaMusic(adm, "global.park.lounge", "vinyl/jazz-33")
	require.NoError(t, err)
	assert.Equal(t, admin.ReasonIllegalAction, res.Reason, "rooms do not carry a track")

	_, err = f.engine.SetAreaMusic(adm, "global.nowhere", "vinyl/jazz-33")
	assert.ErrorIs(t, err, world.ErrContextNotFound)
}

func TestEngine_UnknownAction(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "global.park", 20, 20)
	bob := f.user(t, "bob", "global.park", 22, 20)

	_, err := f.engine.Perform(context.Background(), alice, bob, admin.Action("frobnicate"), nil)
	assert.Error(t, err)
}
