// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package store

import (
	"cmp"
	"slices"

	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/admin"
)

// RolesFromControl flattens the control's current assignments into records,
// sorted for a stable on-disk order.
func RolesFromControl(c *access.Control) []RoleRecord {
	var records []RoleRecord
	for userID, byContext := range c.Snapshot() {
		for contextID, roles := range byContext {
			for _, role := range roles {
				records = append(records, RoleRecord{
					UserID:    userID,
					ContextID: contextID,
					Role:      role.String(),
				})
			}
		}
	}
	sortRoleRecords(records)
	return records
}

// ApplyRoles replays stored records into the control. Unknown roles abort,
// leaving the control partially populated; callers load into a fresh control.
func ApplyRoles(c *access.Control, records []RoleRecord) error {
	for _, rec := range records {
		if err := c.Assign(rec.UserID, rec.ContextID, access.Role(rec.Role)); err != nil {
			return oops.In("store").
				With("user_id", rec.UserID.String()).
				With("context_id", rec.ContextID).
				Wrap(err)
		}
	}
	return nil
}

// RelationsToRecords flattens the durable subset of relation state, friends
// and ignores, into records sorted for a stable on-disk order. Invites,
// mutes, and reports are session state and are not persisted.
func RelationsToRecords(r *admin.Relations) []RelationRecord {
	var records []RelationRecord
	for _, pair := range r.SnapshotFriends() {
		records = append(records, RelationRecord{A: pair[0], B: pair[1], Kind: KindFriend})
	}
	for _, pair := range r.SnapshotIgnores() {
		records = append(records, RelationRecord{A: pair[0], B: pair[1], Kind: KindIgnore})
	}
	sortRelationRecords(records)
	return records
}

// ApplyRelations replays stored records into the relation state. Friends are
// applied before ignores so an ignore's friendship-severing side effect wins
// should a snapshot ever hold both for one pair. Unknown kinds are skipped.
func ApplyRelations(r *admin.Relations, records []RelationRecord) {
	for _, rec := range records {
		if rec.Kind == KindFriend {
			r.Befriend(rec.A, rec.B)
		}
	}
	for _, rec := range records {
		if rec.Kind == KindIgnore {
			r.Ignore(rec.A, rec.B)
		}
	}
}

func sortRoleRecords(records []RoleRecord) {
	slices.SortFunc(records, func(a, b RoleRecord) int {
		if c := a.UserID.Compare(b.UserID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ContextID, b.ContextID); c != 0 {
			return c
		}
		return cmp.Compare(a.Role, b.Role)
	})
}

func sortRelationRecords(records []RelationRecord) {
	slices.SortFunc(records, func(a, b RelationRecord) int {
		if c := a.A.Compare(b.A); c != 0 {
			return c
		}
		if c := a.B.Compare(b.B); c != 0 {
			return c
		}
		return cmp.Compare(string(a.Kind), string(b.Kind))
	})
}
