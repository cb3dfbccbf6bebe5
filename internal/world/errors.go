// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import "github.com/samber/oops"

// Typed failure conditions. Callers distinguish them with errors.Is; all of
// these are recoverable except ErrIllegalState, which indicates a caller
// bug (e.g. acting while not located in any world).
var (
	// ErrContextNotFound is returned when a context ID is unknown to the tree.
	ErrContextNotFound = oops.Code("CONTEXT_NOT_FOUND").Errorf("context not found")

	// ErrUserNotFound is returned when a user ID is unknown to the registry.
	ErrUserNotFound = oops.Code("USER_NOT_FOUND").Errorf("user not found")

	// ErrIllegalState is returned when a structural invariant is violated.
	ErrIllegalState = oops.Code("ILLEGAL_STATE").Errorf("illegal state")

	// ErrDuplicateContext is returned when adding a child whose ID already
	// exists in the tree.
	ErrDuplicateContext = oops.Code("CONTEXT_DUPLICATE").Errorf("context already exists")

	// ErrExpanseOutOfBounds is returned at build time when a child area's
	// expanse is not fully contained in its parent's.
	ErrExpanseOutOfBounds = oops.Code("EXPANSE_OUT_OF_BOUNDS").Errorf("expanse outside parent bounds")

	// ErrInvalidKind is returned for context kinds outside the known set.
	ErrInvalidKind = oops.Code("CONTEXT_INVALID_KIND").Errorf("invalid context kind")
)
