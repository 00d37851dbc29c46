package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for bridge state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// =========================================================================
// PUBLISH RUNS
// =========================================================================

// InsertPublishRun stores one publish run.
func (r *Repository) InsertPublishRun(ctx context.Context, run PublishRun) error {
	slog.Debug(fmt.Sprintf("%s - InsertPublishRun id=%s account=%s", repoLogPrefix, run.ID, run.Account))

	perKind := run.PerKind
	if perKind == nil {
		perKind = map[string]string{}
	}
	results := run.Results
	if len(results) == 0 {
		results = []byte("[]")
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO publish_runs (id, account, trigger, succeeded, failed, skipped, per_kind, results, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Account, run.Trigger, run.Succeeded, run.Failed, run.Skipped,
		perKind, results, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("%s - insert publish run: %w", repoLogPrefix, err)
	}
	return nil
}

// ListPublishRuns returns the newest runs of an account.
func (r *Repository) ListPublishRuns(ctx context.Context, account string, limit int) ([]PublishRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, account, trigger, succeeded, failed, skipped, per_kind, results, started_at, finished_at
		 FROM publish_runs
		 WHERE account = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - list publish runs: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []PublishRun
	for rows.Next() {
		var run PublishRun
		if err := rows.Scan(&run.ID, &run.Account, &run.Trigger, &run.Succeeded, &run.Failed, &run.Skipped,
			&run.PerKind, &run.Results, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("%s - scan publish run: %w", repoLogPrefix, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// =========================================================================
// ACCOUNT STATE
// =========================================================================

// SaveAccountState creates or replaces an account's state row.
func (r *Repository) SaveAccountState(ctx context.Context, state AccountState) error {
	versions := state.AlertedVersions
	if versions == nil {
		versions = []string{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO account_state (account, last_published, alerted_versions, modified)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account) DO UPDATE SET
		   last_published = COALESCE($2, account_state.last_published),
		   alerted_versions = $3,
		   modified = $4`,
		state.Account, state.LastPublished, versions, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s - save account state: %w", repoLogPrefix, err)
	}
	return nil
}

// LoadAccountState returns an account's state, or nil when none was saved.
func (r *Repository) LoadAccountState(ctx context.Context, account string) (*AccountState, error) {
	var s AccountState
	err := r.pool.QueryRow(ctx,
		`SELECT account, last_published, alerted_versions, modified
		 FROM account_state
		 WHERE account = $1`, account).
		Scan(&s.Account, &s.LastPublished, &s.AlertedVersions, &s.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - load account state: %w", repoLogPrefix, err)
	}
	return &s, nil
}
