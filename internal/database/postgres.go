package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pgRetryDelay = 2 * time.Second
	pgPingTTL    = 5 * time.Second
)

// OpenPostgres connects through pgx. The pool is opened once and pinged
// until the server answers, cfg.ConnectRetries runs out or ctx is done.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open(postgresDriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := pingWithRetry(ctx, sqlDB, max(cfg.ConnectRetries, 1)); err != nil {
		sqlDB.Close()
		return nil, err
	}

	slog.Info("connected to postgres", "max_open_conns", cfg.MaxOpenConns)
	return newDB(sqlDB, config.DriverPostgres, "", cfg, ""), nil
}

func pingWithRetry(ctx context.Context, sqlDB *sql.DB, attempts int) error {
	var err error
	for attempt := 1; ; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, pgPingTTL)
		err = sqlDB.PingContext(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
		}

		slog.Warn("database not reachable", "attempt", attempt, "of", attempts, "error", err)
		select {
		case <-time.After(pgRetryDelay):
		case <-ctx.Done():
			return fmt.Errorf("database connect canceled: %w", ctx.Err())
		}
	}
}
