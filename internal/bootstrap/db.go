package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/config"
)

// OpenDB opens the pgx pool shared by all repos and fails fast on an
// unreachable database.
func OpenDB(ctx context.Context, dbc *config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := dbc.ConnString()
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if dbc.MaxConns > 0 {
		pcfg.MaxConns = int32(dbc.MaxConns)
	}
	if dbc.MinConns > 0 {
		pcfg.MinConns = int32(dbc.MinConns)
	}
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.HealthCheckPeriod = 30 * time.Second

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(cctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, 2*time.Second)
	defer pcancel()

	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return pool, nil
}
