package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearBridge truncates publish history and account state. Schema and the
// applied-migrations record are preserved.
func ClearBridge(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("%s - no database pool", clearLogPrefix)
	}
	slog.Info(fmt.Sprintf("%s - Clearing bridge tables", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE publish_runs, account_state`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Bridge tables cleared", clearLogPrefix))
	return nil
}
