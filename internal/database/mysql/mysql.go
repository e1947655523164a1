// Package mysql implements database.DB for MySQL using go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/database/stdsql"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
	defaultConnectTimeout  = 5 * time.Second
)

const tableExistsQuery = `
	SELECT COUNT(*)
	FROM information_schema.tables
	WHERE table_schema = DATABASE()
	  AND table_type   = 'BASE TABLE'
	  AND table_name   = ?`

// New opens a MySQL connection pool using the provided Config.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*stdsql.DB, error) {
	sqlDB, err := sql.Open("mysql", cfg.ConnString())
	if err != nil {
		return nil, mapError(err, "invalid DSN")
	}

	stdsql.Configure(sqlDB, &database.Config{
		MaxConns:        database.WithDefault(cfg.MaxConns, defaultMaxOpenConns),
		MinConns:        database.WithDefault(cfg.MinConns, defaultMaxIdleConns),
		MaxConnLifetime: database.WithDefault(cfg.MaxConnLifetime, defaultConnMaxLifetime),
		MaxConnIdleTime: database.WithDefault(cfg.MaxConnIdleTime, defaultConnMaxIdleTime),
	})

	db := stdsql.Wrap(sqlDB, stdsql.Options{
		Dialect:          database.DialectMySQL,
		TableExistsQuery: tableExistsQuery,
		Classify:         classify,
	})

	pingCtx, cancel := context.WithTimeout(ctx, database.WithDefault(cfg.ConnectTimeout, defaultConnectTimeout))
	defer cancel()

	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
