package database

import "context"

// Querier is the set of statements that can run either directly on the
// pool or inside a transaction.
type Querier interface {
	// Exec executes a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Insert executes an INSERT and returns the generated value of idColumn.
	// Postgres appends RETURNING; database/sql drivers use LastInsertId.
	Insert(ctx context.Context, sql, idColumn string, args ...any) (int64, error)

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	// Errors are deferred to Row.Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// DB is the central contract for all database operations.
// The store and server layers talk only to this interface; drivers are
// chosen once by the connect package.
type DB interface {
	Querier

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)

	// Dialect reports the placeholder and quoting style of the engine.
	Dialect() Dialect

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)
}

// Tx is a transaction opened by DB.Begin.
// Exactly one of Commit or Rollback must be called.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
// Scan returns an errs.ErrKindNotFound error when the query matched nothing.
type Row interface {
	Scan(dest ...any) error
}
