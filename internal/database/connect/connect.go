// Package connect opens the database.DB implementation named by a Config.
package connect

import (
	"context"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/database/mysql"
	"github.com/koustreak/clientbook/internal/database/postgres"
	"github.com/koustreak/clientbook/internal/database/sqlite"
	"github.com/koustreak/clientbook/internal/errs"
)

// Open connects using cfg.Driver and verifies the connection with a ping.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	var (
		db  database.DB
		err error
	)
	switch cfg.Driver {
	case database.DriverPostgres, "":
		db, err = postgres.New(ctx, cfg)
	case database.DriverMySQL:
		db, err = mysql.New(ctx, cfg)
	case database.DriverSQLite:
		db, err = sqlite.New(ctx, cfg)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}
