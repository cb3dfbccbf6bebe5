// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package store persists role assignments and user relations at snapshot
// boundaries. There is no transaction log: a snapshot fully replaces the
// previous one.
package store

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RoleRecord is one (user, context, role) assignment.
type RoleRecord struct {
	UserID    ulid.ULID
	ContextID string
	Role      string
}

// RelationKind distinguishes persisted relation rows.
type RelationKind string

// Relation kinds. Friendships are symmetric and stored once with A < B;
// ignores are directed from A to B.
const (
	KindFriend RelationKind = "friend"
	KindIgnore RelationKind = "ignore"
)

// RelationRecord is one persisted user relation.
type RelationRecord struct {
	A    ulid.ULID
	B    ulid.ULID
	Kind RelationKind
}

// ErrSnapshotConflict means a concurrent writer raced this snapshot.
var ErrSnapshotConflict = oops.Code("SNAPSHOT_CONFLICT").Errorf("snapshot write conflicted with a concurrent writer")

// RoleSnapshotRepository persists role assignments.
type RoleSnapshotRepository interface {
	// SaveRoles replaces the stored snapshot with records.
	SaveRoles(ctx context.Context, records []RoleRecord) error

	// LoadRoles returns the stored snapshot.
	LoadRoles(ctx context.Context) ([]RoleRecord, error)
}

// RelationSnapshotRepository persists user relations.
type RelationSnapshotRepository interface {
	// SaveRelations replaces the stored snapshot with records.
	SaveRelations(ctx context.Context, records []RelationRecord) error

	// LoadRelations returns the stored snapshot.
	LoadRelations(ctx context.Context) ([]RelationRecord, error)
}
