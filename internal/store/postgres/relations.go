// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/store"
)

// RelationRepository persists relation snapshots in the user_relations table.
type RelationRepository struct {
	pool poolIface
}

// NewRelationRepository creates a relation snapshot repository backed by pool.
func NewRelationRepository(pool poolIface) *RelationRepository {
	return &RelationRepository{pool: pool}
}

// SaveRelations replaces the stored snapshot with records in one transaction.
func (r *RelationRepository) SaveRelations(ctx context.Context, records []store.RelationRecord) error {
	errb := oops.In("store").With("records", len(records))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errb.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_relations`); err != nil {
		return errb.Code("SNAPSHOT_CLEAR_FAILED").Wrap(err)
	}

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO user_relations (a, b, kind) VALUES ($1, $2, $3)`,
			rec.A.String(), rec.B.String(), string(rec.Kind),
		)
		if err != nil {
			return mapWriteErr(err, "save_relations")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errb.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// LoadRelations returns every stored relation.
func (r *RelationRepository) LoadRelations(ctx context.Context) ([]store.RelationRecord, error) {
	errb := oops.In("store")

	rows, err := r.pool.Query(ctx,
		`SELECT a, b, kind FROM user_relations ORDER BY a, b, kind`,
	)
	if err != nil {
		return nil, errb.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}
	defer rows.Close()

	var records []store.RelationRecord
	for rows.Next() {
		var a, b, kind string
		if err := rows.Scan(&a, &b, &kind); err != nil {
			return nil, errb.Code("SNAPSHOT_SCAN_FAILED").Wrap(err)
		}
		rec := store.RelationRecord{Kind: store.RelationKind(kind)}
		if rec.A, err = ulid.Parse(a); err != nil {
			return nil, errb.Code("SNAPSHOT_SCAN_FAILED").With("a", a).Wrap(err)
		}
		if rec.B, err = ulid.Parse(b); err != nil {
			return nil, errb.Code("SNAPSHOT_SCAN_FAILED").With("b", b).Wrap(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errb.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}
	return records, nil
}
