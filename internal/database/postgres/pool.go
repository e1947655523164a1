package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/errs"
)

const (
	defaultMaxConns    = 10
	defaultMinConns    = 2
	defaultIdleTimeout = 5 * time.Minute
)

// buildPool creates a pgxpool from the given config
func buildPool(ctx context.Context, cfg *database.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid postgres config", err)
	}

	// Apply pool settings with defaults
	poolCfg.MaxConns = database.WithDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = database.WithDefault(cfg.MinConns, defaultMinConns)
	poolCfg.MaxConnIdleTime = database.WithDefault(cfg.MaxConnIdleTime, defaultIdleTimeout)
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError(err, "failed to create connection pool")
	}

	return pool, nil
}
