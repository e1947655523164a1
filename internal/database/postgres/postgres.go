// Package postgres implements database.DB for PostgreSQL using pgxpool.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/clientbook/internal/database"
)

var (
	_ database.DB = (*DB)(nil)
	_ database.Tx = (*pgTx)(nil)
)

// DB implements database.DB for PostgreSQL.
// It is safe for concurrent use by multiple goroutines.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the provided Config and returns a DB.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*DB, error) {
	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{pool: pool}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Dialect reports DialectPostgres.
func (db *DB) Dialect() database.Dialect {
	return database.DialectPostgres
}

// Ping verifies the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	return check(db.pool.Ping(ctx), "ping failed")
}

// Close drains the connection pool. Call when the application shuts down.
func (db *DB) Close() {
	db.pool.Close()
}

// Query executes a query returning multiple rows
func (db *DB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	return query(ctx, db.pool, sql, args...)
}

// QueryRow executes a query returning a single row
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return &pgRow{row: db.pool.QueryRow(ctx, sql, args...)}
}

// Exec executes a statement returning the number of rows affected
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(ctx, db.pool, sql, args...)
}

// Insert executes an INSERT … RETURNING idColumn
func (db *DB) Insert(ctx context.Context, sql, idColumn string, args ...any) (int64, error) {
	return insert(ctx, db.pool, sql, idColumn, args...)
}

// Begin starts a transaction
func (db *DB) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, mapError(err, "begin transaction")
	}
	return &pgTx{tx: tx}, nil
}

// TableExists reports whether a table with the given name exists in the current schema.
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema()
			  AND table_type   = 'BASE TABLE'
			  AND table_name   = $1
		)`

	var exists bool
	if err := db.pool.QueryRow(ctx, q, table).Scan(&exists); err != nil {
		return false, mapError(err, "failed to check table existence")
	}
	return exists, nil
}

// --- shared statement helpers for pool and tx ---

func exec(ctx context.Context, q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	return tag.RowsAffected(), nil
}

func query(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, sql string, args ...any) (database.Rows, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgRows{rows: rows}, nil
}

func insert(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, sql, idColumn string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, sql+" RETURNING "+idColumn, args...).Scan(&id); err != nil {
		return 0, mapError(err, "insert failed")
	}
	return id, nil
}

// check maps err and keeps a nil error nil.
func check(err error, msg string) error {
	if err == nil {
		return nil
	}
	return mapError(err, msg)
}

// --- pgRows wraps pgx.Rows ---

type pgRows struct{ rows pgx.Rows }

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return check(r.rows.Scan(dest...), "scan failed") }
func (r *pgRows) Close()                 { r.rows.Close() }
func (r *pgRows) Err() error             { return check(r.rows.Err(), "row iteration failed") }

func (r *pgRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// --- pgRow wraps pgx.Row ---

type pgRow struct{ row pgx.Row }

func (r *pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return mapError(err, "record not found")
	}
	return check(err, "scan failed")
}

// --- pgTx wraps pgx.Tx ---

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	return query(ctx, t.tx, sql, args...)
}

func (t *pgTx) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return &pgRow{row: t.tx.QueryRow(ctx, sql, args...)}
}

func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(ctx, t.tx, sql, args...)
}

func (t *pgTx) Insert(ctx context.Context, sql, idColumn string, args ...any) (int64, error) {
	return insert(ctx, t.tx, sql, idColumn, args...)
}

func (t *pgTx) Commit(ctx context.Context) error {
	return check(t.tx.Commit(ctx), "commit failed")
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return check(err, "rollback failed")
}
