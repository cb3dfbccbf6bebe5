// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package postgres implements the snapshot repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/store"
)

// poolIface abstracts the pgx pool so repositories run against *pgxpool.Pool
// in production and pgxmock in tests.
type poolIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// mapWriteErr converts unique violations into ErrSnapshotConflict. A
// replace-style snapshot only trips uniqueness when two writers race.
func mapWriteErr(err error, operation string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.With("operation", operation).Wrap(store.ErrSnapshotConflict)
	}
	return oops.With("operation", operation).Wrap(err)
}

// rollback is the deferred cleanup for snapshot transactions.
func rollback(ctx context.Context, tx pgx.Tx) {
	// ErrTxClosed after a successful commit is the normal path.
	_ = tx.Rollback(ctx)
}
