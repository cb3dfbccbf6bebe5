// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package reserve

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Granter applies and removes the area-manager role. The admin engine
// satisfies this directly, so scheduled grants serialize with manual ones
// under the same per-world locks.
type Granter interface {
	GrantAreaManager(userID ulid.ULID, areaID string) error
	WithdrawAreaManager(userID ulid.ULID, areaID string) error
}

type boundaryKind int

const (
	boundaryEnd boundaryKind = iota // ends sort before starts at the same instant
	boundaryStart
)

// boundary is one scheduled role transition.
type boundary struct {
	at   time.Time
	kind boundaryKind
	id   ulid.ULID
}

// boundaryHeap orders boundaries by time, ends first on ties so a
// back-to-back handover withdraws before it grants.
type boundaryHeap []boundary

func (h boundaryHeap) Len() int { return len(h) }
func (h boundaryHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].kind < h[j].kind
}
func (h boundaryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *boundaryHeap) Push(x any)        { *h = append(*h, x.(boundary)) }
func (h *boundaryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Scheduler accepts reservations and drives the role grants at interval
// boundaries. One Run goroutine owns the timer; all state is behind mu.
type Scheduler struct {
	granter Granter
	clock   func() time.Time

	mu      sync.Mutex
	pending boundaryHeap
	byID    map[ulid.ULID]*Reservation
	byArea  map[string][]*Reservation
	active  map[ulid.ULID]struct{}
	wake    chan struct{}
}

// NewScheduler creates a scheduler. A nil clock means time.Now.
func NewScheduler(granter Granter, clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		granter: granter,
		clock:   clock,
		byID:    make(map[ulid.ULID]*Reservation),
		byArea:  make(map[string][]*Reservation),
		active:  make(map[ulid.ULID]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Reserve accepts a booking of the area for [from, to) and returns its ID.
// The interval must be non-empty and must not start in the past; it must
// not overlap any accepted reservation for the same area, regardless of
// who holds it.
func (s *Scheduler) Reserve(userID ulid.ULID, areaID string, from, to time.Time) (ulid.ULID, error) {
	if !from.Before(to) || from.Before(s.clock()) {
		return ulid.ULID{}, oops.
			With("area_id", areaID).
			With("from", from).
			With("to", to).
			Wrap(ErrInvalidInterval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byArea[areaID] {
		if existing.Overlaps(from, to) {
			return ulid.ULID{}, oops.
				With("area_id", areaID).
				With("conflicting_id", existing.ID.String()).
				Wrap(ErrReservationOverlap)
		}
	}

	r := &Reservation{
		ID:     ulid.Make(),
		UserID: userID,
		AreaID: areaID,
		From:   from,
		To:     to,
	}
	s.byID[r.ID] = r
	s.byArea[areaID] = append(s.byArea[areaID], r)
	heap.Push(&s.pending, boundary{at: from, kind: boundaryStart, id: r.ID})
	heap.Push(&s.pending, boundary{at: to, kind: boundaryEnd, id: r.ID})
	recordReservation("accepted")
	s.poke()
	return r.ID, nil
}

// Get returns a copy of the reservation.
func (s *Scheduler) Get(id ulid.ULID) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return Reservation{}, oops.With("reservation_id", id.String()).Wrap(ErrReservationNotFound)
	}
	return *r, nil
}

// ForArea returns the accepted reservations for the area, unordered.
func (s *Scheduler) ForArea(areaID string) []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reservation, 0, len(s.byArea[areaID]))
	for _, r := range s.byArea[areaID] {
		out = append(out, *r)
	}
	return out
}

// Cancel withdraws a reservation before its window opens. A reservation
// whose start boundary has fired runs to its natural end.
func (s *Scheduler) Cancel(id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return oops.With("reservation_id", id.String()).Wrap(ErrReservationNotFound)
	}
	if _, started := s.active[id]; started || !s.clock().Before(r.From) {
		return oops.With("reservation_id", id.String()).Wrap(ErrReservationStarted)
	}

	// Boundaries stay in the heap and are discarded when they surface.
	s.dropLocked(r)
	recordReservation("canceled")
	return nil
}

// Run drives boundary processing until ctx is canceled. Call it in its own
// goroutine; it returns only on cancellation.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		wait, ok := s.process()

		if ok {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			if ok && !timer.Stop() {
				<-timer.C
			}
			return
		case <-s.wake:
			if ok && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
			if !ok {
				// Spurious; nothing was scheduled.
				continue
			}
		}
	}
}

// process fires every due boundary and reports the wait until the next one.
// ok is false when the heap is empty.
func (s *Scheduler) process() (wait time.Duration, ok bool) {
	var fired []func()

	s.mu.Lock()
	now := s.clock()
	for s.pending.Len() > 0 {
		next := s.pending[0]
		if next.at.After(now) {
			break
		}
		heap.Pop(&s.pending)
		if f := s.fireLocked(next); f != nil {
			fired = append(fired, f)
		}
	}
	if s.pending.Len() > 0 {
		wait, ok = s.pending[0].at.Sub(now), true
	}
	s.mu.Unlock()

	// Grants run outside mu: the granter takes world locks of its own.
	for _, f := range fired {
		f()
	}
	return wait, ok
}

// fireLocked resolves one due boundary against current state and returns
// the grant/withdraw thunk to run unlocked, or nil for stale boundaries.
func (s *Scheduler) fireLocked(b boundary) func() {
	r, ok := s.byID[b.id]
	if !ok {
		return nil // canceled before start
	}
	switch b.kind {
	case boundaryStart:
		s.active[r.ID] = struct{}{}
		recordReservation("started")
		return func() {
			if err := s.granter.GrantAreaManager(r.UserID, r.AreaID); err != nil {
				slog.Warn("reservation grant failed",
					"reservation_id", r.ID.String(),
					"area_id", r.AreaID,
					"error", err,
				)
			}
		}
	case boundaryEnd:
		wasActive := false
		if _, wasActive = s.active[r.ID]; wasActive {
			delete(s.active, r.ID)
		}
		s.dropLocked(r)
		recordReservation("ended")
		if !wasActive {
			return nil
		}
		return func() {
			if err := s.granter.WithdrawAreaManager(r.UserID, r.AreaID); err != nil {
				slog.Warn("reservation withdraw failed",
					"reservation_id", r.ID.String(),
					"area_id", r.AreaID,
					"error", err,
				)
			}
		}
	}
	return nil
}

// dropLocked removes the reservation from the lookup structures.
func (s *Scheduler) dropLocked(r *Reservation) {
	delete(s.byID, r.ID)
	held := s.byArea[r.AreaID]
	for i, candidate := range held {
		if candidate.ID == r.ID {
			s.byArea[r.AreaID] = append(held[:i], held[i+1:]...)
			break
		}
	}
	if len(s.byArea[r.AreaID]) == 0 {
		delete(s.byArea, r.AreaID)
	}
}

// poke nudges the Run loop to pick up a schedule change.
func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
