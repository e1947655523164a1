// Package stdsql adapts a database/sql pool to database.DB.
//
// The MySQL and SQLite drivers both go through database/sql; they differ
// only in dialect, table lookup and how native errors are classified, which
// they pass in via Options.
package stdsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/errs"
)

// Classifier maps a driver-native error to a kind. ok is false when the
// error is not a native driver error. The driver text stays in the cause.
type Classifier func(err error) (kind errs.ErrKind, ok bool)

// Options describe the engine behind the pool.
type Options struct {
	Dialect database.Dialect

	// TableExistsQuery takes the table name as its only argument and
	// returns a single row with a boolean-ish count.
	TableExistsQuery string

	Classify Classifier
}

// DB implements database.DB on top of *sql.DB.
// It is safe for concurrent use by multiple goroutines.
type DB struct {
	db   *sql.DB
	opts Options
}

var (
	_ database.DB = (*DB)(nil)
	_ database.Tx = (*sqlTx)(nil)
)

// Wrap adapts an opened *sql.DB.
func Wrap(db *sql.DB, opts Options) *DB {
	return &DB{db: db, opts: opts}
}

// Configure applies the pool settings of cfg to db.
func Configure(db *sql.DB, cfg *database.Config) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(int(cfg.MinConns))
	}
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
}

func (d *DB) Dialect() database.Dialect {
	return d.opts.Dialect
}

func (d *DB) Ping(ctx context.Context) error {
	return d.check(d.db.PingContext(ctx), "ping failed")
}

func (d *DB) Close() {
	_ = d.db.Close()
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return d.query(ctx, d.db, query, args...)
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqlRow{row: d.db.QueryRowContext(ctx, query, args...), owner: d}
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return d.exec(ctx, d.db, query, args...)
}

func (d *DB) Insert(ctx context.Context, query, _ string, args ...any) (int64, error) {
	return d.insert(ctx, d.db, query, args...)
}

func (d *DB) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, d.mapError(err, "begin transaction")
	}
	return &sqlTx{tx: tx, owner: d}, nil
}

func (d *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, d.opts.TableExistsQuery, table).Scan(&n); err != nil {
		return false, d.mapError(err, "failed to check table existence")
	}
	return n > 0, nil
}

// --- shared statement helpers for pool and tx ---

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (d *DB) exec(ctx context.Context, q execQuerier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, d.mapError(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, d.mapError(err, "rows affected")
	}
	return n, nil
}

func (d *DB) insert(ctx context.Context, q execQuerier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, d.mapError(err, "insert failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, d.mapError(err, "last insert id")
	}
	return id, nil
}

func (d *DB) query(ctx context.Context, q execQuerier, query string, args ...any) (database.Rows, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, d.mapError(err, "query failed")
	}
	return &sqlRows{rows: rows, owner: d}, nil
}

// --- error mapping ---

// mapError translates database/sql and driver errors into *errs.Error.
func (d *DB) mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	if d.opts.Classify != nil {
		if kind, ok := d.opts.Classify(err); ok {
			return errs.Wrap(kind, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// check maps err and keeps a nil error nil.
func (d *DB) check(err error, msg string) error {
	if err == nil {
		return nil
	}
	return d.mapError(err, msg)
}

// --- sql.DB type wrappers ---

type sqlRows struct {
	rows  *sql.Rows
	owner *DB
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.owner.check(r.rows.Scan(dest...), "scan failed") }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.owner.check(r.rows.Err(), "row iteration failed") }

type sqlRow struct {
	row   *sql.Row
	owner *DB
}

func (r *sqlRow) Scan(dest ...any) error {
	return r.owner.check(r.row.Scan(dest...), "record not found")
}

type sqlTx struct {
	tx    *sql.Tx
	owner *DB
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return t.owner.query(ctx, t.tx, query, args...)
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqlRow{row: t.tx.QueryRowContext(ctx, query, args...), owner: t.owner}
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return t.owner.exec(ctx, t.tx, query, args...)
}

func (t *sqlTx) Insert(ctx context.Context, query, _ string, args ...any) (int64, error) {
	return t.owner.insert(ctx, t.tx, query, args...)
}

func (t *sqlTx) Commit(_ context.Context) error {
	return t.owner.check(t.tx.Commit(), "commit failed")
}

func (t *sqlTx) Rollback(_ context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return t.owner.check(err, "rollback failed")
}
