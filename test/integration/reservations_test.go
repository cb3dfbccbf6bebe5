// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/reserve"
)

var _ = Describe("Disco reservations", func() {
	var (
		p         *park
		scheduler *reserve.Scheduler
		cancel    context.CancelFunc
		done      chan struct{}
		dj        ulid.ULID
	)

	hasAreaManager := func(userID ulid.ULID) bool {
		for _, role := range p.control.RolesAt(userID, "global.park.disco") {
			if role == access.RoleAreaManager {
				return true
			}
		}
		return false
	}

	BeforeEach(func() {
		var err error
		p, err = buildPark()
		Expect(err).NotTo(HaveOccurred())
		dj, err = p.enter("dj", 20, 20)
		Expect(err).NotTo(HaveOccurred())

		scheduler = reserve.NewScheduler(p.engine, nil)
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			scheduler.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
	})

	It("grants area manager for the window and withdraws it after", func() {
		now := time.Now()
		_, err := scheduler.Reserve(dj, "global.park.disco", now.Add(30*time.Millisecond), now.Add(150*time.Millisecond))
		Expect(err).NotTo(HaveOccurred())

		Expect(hasAreaManager(dj)).To(BeFalse())
		Eventually(func() bool { return hasAreaManager(dj) }, time.Second, 5*time.Millisecond).Should(BeTrue())
		Eventually(func() bool { return hasAreaManager(dj) }, time.Second, 5*time.Millisecond).Should(BeFalse())
	})

	It("rejects overlapping reservations for the same area", func() {
		now := time.Now()
		_, err := scheduler.Reserve(dj, "global.park.disco", now.Add(time.Hour), now.Add(2*time.Hour))
		Expect(err).NotTo(HaveOccurred())

		rival, err := p.enter("rival", 21, 21)
		Expect(err).NotTo(HaveOccurred())
		_, err = scheduler.Reserve(rival, "global.park.disco", now.Add(90*time.Minute), now.Add(3*time.Hour))
		Expect(err).To(MatchError(reserve.ErrReservationOverlap))
	})

	It("hands an area over back-to-back", func() {
		second, err := p.enter("second", 22, 22)
		Expect(err).NotTo(HaveOccurred())

		now := time.Now()
		handover := now.Add(80 * time.Millisecond)
		_, err = scheduler.Reserve(dj, "global.park.disco", now.Add(20*time.Millisecond), handover)
		Expect(err).NotTo(HaveOccurred())
		_, err = scheduler.Reserve(second, "global.park.disco", handover, handover.Add(time.Second))
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() bool { return hasAreaManager(dj) }, time.Second, 5*time.Millisecond).Should(BeTrue())
		Eventually(func() bool { return hasAreaManager(second) }, time.Second, 5*time.Millisecond).Should(BeTrue())
		Expect(hasAreaManager(dj)).To(BeFalse())
	})

	It("a canceled reservation never grants", func() {
		now := time.Now()
		id, err := scheduler.Reserve(dj, "global.park.disco", now.Add(50*time.Millisecond), now.Add(100*time.Millisecond))
		Expect(err).NotTo(HaveOccurred())
		Expect(scheduler.Cancel(id)).To(Succeed())

		Consistently(func() bool { return hasAreaManager(dj) }, 200*time.Millisecond, 10*time.Millisecond).Should(BeFalse())
	})
})
