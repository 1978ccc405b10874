package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

const runColumns = `id, owner_id, type, services, state, progress_percent,
	records_processed, estimated_duration, last_error, completed_at,
	created_at, updated_at`

// CreateRun inserts a new run row.
func (s *Store) CreateRun(ctx context.Context, r *collection.Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO harvest_runs (
			id, owner_id, type, services, state, progress_percent,
			records_processed, estimated_duration, last_error, completed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID.String(), r.OwnerID, string(r.Type), servicesToStrings(r.Services),
		string(r.State), r.ProgressPercent, r.RecordsProcessed,
		r.EstimatedDuration, r.LastError, r.CompletedAt,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return harvest.ErrRunAlreadyExists
		}
		return fmt.Errorf("harvest/postgres: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.CollectionID) (*collection.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM harvest_runs WHERE id = $1`,
		runID.String(),
	)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, harvest.ErrRunNotFound
		}
		return nil, fmt.Errorf("harvest/postgres: get run: %w", err)
	}
	return r, nil
}

// UpdateRun applies fn inside a transaction holding a row lock on the
// run: SELECT ... FOR UPDATE serializes concurrent mutations of the
// same run while leaving other rows untouched. A mutator error rolls
// the transaction back and surfaces unchanged.
func (s *Store) UpdateRun(ctx context.Context, runID id.CollectionID, fn collection.Mutator) (*collection.Run, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest/postgres: update begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx,
		`SELECT `+runColumns+` FROM harvest_runs WHERE id = $1 FOR UPDATE`,
		runID.String(),
	)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, harvest.ErrRunNotFound
		}
		return nil, fmt.Errorf("harvest/postgres: update read run: %w", err)
	}

	if err := fn(r); err != nil {
		return nil, err
	}
	r.Touch()

	_, err = tx.Exec(ctx, `
		UPDATE harvest_runs SET
			state = $2, progress_percent = $3, records_processed = $4,
			last_error = $5, completed_at = $6, updated_at = $7
		WHERE id = $1`,
		r.ID.String(), string(r.State), r.ProgressPercent, r.RecordsProcessed,
		r.LastError, r.CompletedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("harvest/postgres: update run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("harvest/postgres: update commit: %w", err)
	}
	return r, nil
}

// ListRunsByState returns runs matching the given state, most recent
// first.
func (s *Store) ListRunsByState(ctx context.Context, state collection.State, opts collection.ListOpts) ([]*collection.Run, error) {
	query := `SELECT ` + runColumns + ` FROM harvest_runs WHERE state = $1`
	args := []any{string(state)}

	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		query += ` AND owner_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("harvest/postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*collection.Run
	for rows.Next() {
		r, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("harvest/postgres: list scan: %w", scanErr)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("harvest/postgres: list rows: %w", err)
	}
	return runs, nil
}

// CountRuns returns the number of runs matching the given options.
func (s *Store) CountRuns(ctx context.Context, opts collection.CountOpts) (int64, error) {
	query := `SELECT COUNT(*) FROM harvest_runs WHERE TRUE`
	var args []any

	if opts.State != "" {
		args = append(args, string(opts.State))
		query += ` AND state = $` + strconv.Itoa(len(args))
	}
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		query += ` AND owner_id = $` + strconv.Itoa(len(args))
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("harvest/postgres: count runs: %w", err)
	}
	return count, nil
}

// ── helpers ──

func servicesToStrings(svcs []collection.Service) []string {
	out := make([]string, len(svcs))
	for i, svc := range svcs {
		out[i] = string(svc)
	}
	return out
}

func scanRun(row pgx.Row) (*collection.Run, error) {
	var (
		r        collection.Run
		rawID    string
		rawType  string
		rawState string
		services []string
	)

	err := row.Scan(
		&rawID, &r.OwnerID, &rawType, &services, &rawState,
		&r.ProgressPercent, &r.RecordsProcessed, &r.EstimatedDuration,
		&r.LastError, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ID, err = id.ParseCollectionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	r.Type = collection.Type(rawType)
	r.State = collection.State(rawState)
	r.Services = make([]collection.Service, len(services))
	for i, svc := range services {
		r.Services[i] = collection.Service(svc)
	}
	return &r, nil
}
