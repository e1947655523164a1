// Package sqlite implements database.DB for SQLite using modernc.org/sqlite.
//
// It serves embedded single-file deployments and the test suite. Foreign
// key enforcement is switched on for every connection so the cascade from
// client to phone behaves as it does on the server engines.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/database/stdsql"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

const tableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

// New opens a SQLite database. cfg.ConnString() is a file path or ":memory:".
func New(ctx context.Context, cfg *database.Config) (*stdsql.DB, error) {
	path := cfg.ConnString()
	sqlDB, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, mapError(err, "failed to open database")
	}

	if isMemory(path) {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		stdsql.Configure(sqlDB, cfg)
	}

	db := stdsql.Wrap(sqlDB, stdsql.Options{
		Dialect:          database.DialectSQLite,
		TableExistsQuery: tableExistsQuery,
		Classify:         classify,
	})

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Memory opens a private in-memory database.
func Memory(ctx context.Context) (*stdsql.DB, error) {
	return New(ctx, &database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// withPragmas appends the connection pragmas modernc applies on open.
func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
