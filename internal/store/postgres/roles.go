// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/store"
)

// RoleRepository persists role snapshots in the context_roles table.
type RoleRepository struct {
	pool poolIface
}

// NewRoleRepository creates a role snapshot repository backed by pool.
func NewRoleRepository(pool poolIface) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// SaveRoles replaces the stored snapshot with records in one transaction.
func (r *RoleRepository) SaveRoles(ctx context.Context, records []store.RoleRecord) error {
	errb := oops.In("store").With("records", len(records))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errb.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM context_roles`); err != nil {
		return errb.Code("SNAPSHOT_CLEAR_FAILED").Wrap(err)
	}

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO context_roles (user_id, context_id, role) VALUES ($1, $2, $3)`,
			rec.UserID.String(), rec.ContextID, rec.Role,
		)
		if err != nil {
			return mapWriteErr(err, "save_roles")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errb.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// LoadRoles returns every stored role assignment.
func (r *RoleRepository) LoadRoles(ctx context.Context) ([]store.RoleRecord, error) {
	errb := oops.In("store")

	rows, err := r.pool.Query(ctx,
		`SELECT user_id, context_id, role FROM context_roles ORDER BY user_id, context_id, role`,
	)
	if err != nil {
		return nil, errb.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}
	defer rows.Close()

	var records []store.RoleRecord
	for rows.Next() {
		var userID string
		var rec store.RoleRecord
		if err := rows.Scan(&userID, &rec.ContextID, &rec.Role); err != nil {
			return nil, errb.Code("SNAPSHOT_SCAN_FAILED").Wrap(err)
		}
		rec.UserID, err = ulid.Parse(userID)
		if err != nil {
			return nil, errb.Code("SNAPSHOT_SCAN_FAILED").With("user_id", userID).Wrap(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errb.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}
	return records, nil
}
