// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

//go:build integration

package integration

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/admin"
	"github.com/atriumworld/atrium/internal/auth"
	"github.com/atriumworld/atrium/internal/geometry"
	"github.com/atriumworld/atrium/internal/world"
)

var _ = Describe("Park moderation", func() {
	var (
		p     *park
		ctx   context.Context
		mod   ulid.ULID
		guest ulid.ULID
	)

	perform := func(actor, target ulid.ULID, action admin.Action, args ...string) admin.Result {
		res, err := p.engine.Perform(ctx, actor, target, action, args)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	BeforeEach(func() {
		var err error
		p, err = buildPark()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		mod, err = p.enter("mod", 20, 20)
		Expect(err).NotTo(HaveOccurred())
		guest, err = p.enter("guest", 25, 25)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.control.Assign(mod, "global.park", access.RoleModerator)).To(Succeed())
	})

	Describe("warnings in the disco", func() {
		It("clears reports and notifies the warned user", func() {
			reporter, err := p.enter("reporter", 22, 22)
			Expect(err).NotTo(HaveOccurred())

			Expect(perform(reporter, guest, admin.ActionReportUser).OK).To(BeTrue())
			Expect(p.relations.ReportersOf("global.park.disco", guest)).To(HaveLen(1))

			Expect(perform(mod, guest, admin.ActionWarnUser).OK).To(BeTrue())
			Expect(p.relations.ReportersOf("global.park.disco", guest)).To(BeEmpty())
			Expect(p.sink.templatesFor(guest)).To(ContainElement("discipline.warned"))
		})

		It("mutes on the innermost shared context", func() {
			Expect(perform(mod, guest, admin.ActionMuteUser).OK).To(BeTrue())
			Expect(p.relations.IsMuted("global.park.disco", guest)).To(BeTrue())
			Expect(p.relations.IsMuted("global.park", guest)).To(BeFalse())

			Expect(perform(mod, guest, admin.ActionUnmuteUser).OK).To(BeTrue())
			Expect(p.relations.IsMuted("global.park.disco", guest)).To(BeFalse())
		})

		It("refuses discipline from peers", func() {
			peer, err := p.enter("peer", 21, 21)
			Expect(err).NotTo(HaveOccurred())

			res := perform(peer, guest, admin.ActionWarnUser)
			Expect(res.OK).To(BeFalse())
			Expect(res.Reason).To(Equal(admin.ReasonNoPermission))
		})
	})

	Describe("bans", func() {
		var boss ulid.ULID

		BeforeEach(func() {
			var err error
			boss, err = p.enter("boss", 30, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.control.Assign(boss, "global.park", access.RoleAdministrator)).To(Succeed())
		})

		It("evicts the target and blocks re-entry until unban", func() {
			Expect(perform(boss, guest, admin.ActionBanUser).OK).To(BeTrue())

			u, err := p.space.Users().Get(guest)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Location).To(BeNil())

			err = p.space.Place(guest, world.Location{
				RoomID: "global.park",
				Pos:    geometry.Point{X: 5, Y: 5},
			})
			Expect(err).To(MatchError(world.ErrIllegalState))

			Expect(perform(boss, guest, admin.ActionUnbanUser).OK).To(BeTrue())
			Expect(p.space.Place(guest, world.Location{
				RoomID: "global.park",
				Pos:    geometry.Point{X: 5, Y: 5},
			})).To(Succeed())
		})

		It("never lets a moderator ban an administrator", func() {
			res := perform(mod, boss, admin.ActionBanUser)
			Expect(res.OK).To(BeFalse())
			Expect(res.Reason).To(Equal(admin.ReasonNoPermission))
		})
	})

	Describe("friendship", func() {
		It("sending an invite clears the sender's own ignore", func() {
			Expect(perform(mod, guest, admin.ActionIgnoreUser).OK).To(BeTrue())
			Expect(p.relations.Ignores(mod, guest)).To(BeTrue())

			Expect(perform(mod, guest, admin.ActionInviteFriend).OK).To(BeTrue())
			Expect(p.relations.Ignores(mod, guest)).To(BeFalse())

			Expect(perform(guest, mod, admin.ActionFriendAccept).OK).To(BeTrue())
			Expect(p.relations.AreFriends(mod, guest)).To(BeTrue())
		})

		It("an ignored sender cannot invite", func() {
			Expect(perform(guest, mod, admin.ActionIgnoreUser).OK).To(BeTrue())

			res := perform(mod, guest, admin.ActionInviteFriend)
			Expect(res.OK).To(BeFalse())
			Expect(res.Reason).To(Equal(admin.ReasonIllegalAction))
		})
	})

	Describe("the locked lounge", func() {
		var insider ulid.ULID

		BeforeEach(func() {
			u := p.space.Users().Add("insider")
			insider = u.ID
			Expect(p.space.Place(insider, world.Location{
				RoomID: "global.park.lounge",
				Pos:    geometry.Point{X: 65, Y: 65},
			})).To(Succeed())
		})

		It("holds a verifiable password hash", func() {
			lounge, err := p.space.Tree().Resolve("global.park.lounge")
			Expect(err).NotTo(HaveOccurred())

			hasher := auth.NewArgon2idHasher()
			ok, err := hasher.Verify(p.loungeKey, lounge.Room.PasswordHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = hasher.Verify("wrong", lounge.Room.PasswordHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("blocks teleport without the bypass permission", func() {
			p.relations.Befriend(guest, insider)

			res := perform(guest, insider, admin.ActionTeleport)
			Expect(res.OK).To(BeFalse())
			Expect(res.Reason).To(Equal(admin.ReasonNoPermission))
		})

		It("admits an administrator with bypass", func() {
			boss, err := p.enter("boss", 30, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.control.Assign(boss, "global.park", access.RoleAdministrator)).To(Succeed())

			Expect(perform(boss, insider, admin.ActionTeleport).OK).To(BeTrue())

			u, err := p.space.Users().Get(boss)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Location.RoomID).To(Equal(world.ContextID("global.park.lounge")))
		})
	})
})
