// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package reserve implements time-boxed area reservations: a user books an
// area for a half-open interval and holds the area-manager role there for
// exactly that window.
package reserve

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Reservation is one accepted booking. The interval is half-open: the role
// is held from From inclusive to To exclusive, so back-to-back bookings
// hand over without a shared instant.
type Reservation struct {
	ID     ulid.ULID
	UserID ulid.ULID
	AreaID string
	From   time.Time
	To     time.Time
}

// Overlaps reports whether the reservation's interval intersects [from, to).
func (r Reservation) Overlaps(from, to time.Time) bool {
	return r.From.Before(to) && from.Before(r.To)
}

// Reservation errors.
var (
	// ErrReservationOverlap means the requested interval intersects an
	// accepted reservation for the same area.
	ErrReservationOverlap = oops.Code("RESERVATION_OVERLAP").Errorf("interval overlaps an existing reservation")

	// ErrInvalidInterval means the interval is empty, inverted, or starts
	// in the past.
	ErrInvalidInterval = oops.Code("INVALID_INTERVAL").Errorf("invalid reservation interval")

	// ErrReservationNotFound means no accepted reservation has the ID.
	ErrReservationNotFound = oops.Code("RESERVATION_NOT_FOUND").Errorf("reservation not found")

	// ErrReservationStarted means the reservation's window has already
	// opened; started reservations run to their end.
	ErrReservationStarted = oops.Code("RESERVATION_STARTED").Errorf("reservation has already started")
)
