// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// InteractionDistance is the maximum distance (in tiles) between a user's
// position and an interactable's expanse for interaction to be possible.
const InteractionDistance = 2.0

// CanInteract reports whether the user may begin interacting with the
// interactable: the user must be within InteractionDistance of its expanse
// and not already bound to a different interactable.
// Returns false (never an error) for users without a location.
func (s *Space) CanInteract(userID ulid.ULID, interactableID ContextID) (bool, error) {
	node, err := s.tree.Resolve(interactableID)
	if err != nil {
		return false, err
	}
	if node.Kind != KindInteractable || node.Area == nil || node.Area.Expanse == nil {
		return false, oops.With("context_id", interactableID.String()).Hint("not an interactable").Wrap(ErrIllegalState)
	}

	u, err := s.users.Get(userID)
	if err != nil {
		return false, err
	}
	if u.Location == nil {
		return false, nil
	}
	if u.BoundTo != "" && u.BoundTo != interactableID {
		return false, nil
	}
	return node.Area.Expanse.DistanceTo(u.Location.Pos) <= InteractionDistance, nil
}

// Bind marks the user as interacting with the interactable. Fails with
// ErrIllegalState if CanInteract does not hold.
func (s *Space) Bind(userID ulid.ULID, interactableID ContextID) error {
	ok, err := s.CanInteract(userID, interactableID)
	if err != nil {
		return err
	}
	if !ok {
		return oops.
			With("user_id", userID.String()).
			With("context_id", interactableID.String()).
			Hint("out of range or bound elsewhere").
			Wrap(ErrIllegalState)
	}
	return s.users.SetBound(userID, interactableID)
}

// Unbind releases the user's interactable binding. Unbinding while not
// bound is a no-op.
func (s *Space) Unbind(userID ulid.ULID) error {
	return s.users.SetBound(userID, "")
}
