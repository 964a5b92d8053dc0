package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/remsh/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordExecution appends one finished-task row.
func (s *SQLiteStore) RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error {
	s.logger.Debug("sql", "op", "insert", "table", "executions", "id", rec.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (id, task_id, client_num, command, task_type, total_burst, rounds, bytes_sent, state, arrival_at, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, rec.ClientNum, rec.Command, string(rec.Type),
		rec.TotalBurst, rec.Rounds, rec.BytesSent, string(rec.State),
		rec.ArrivalAt.UTC().Format(time.RFC3339Nano),
		formatTimePtr(rec.StartedAt), formatTimePtr(rec.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetExecution fetches a single row by id.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*model.ExecutionRecord, error) {
	s.logger.Debug("sql", "op", "select", "table", "executions", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, client_num, command, task_type, total_burst, rounds, bytes_sent, state, arrival_at, started_at, ended_at
		 FROM executions WHERE id = ?`, id)

	rec, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListExecutions returns rows newest-first with the total count.
func (s *SQLiteStore) ListExecutions(ctx context.Context, opts model.ListOptions) ([]*model.ExecutionRecord, int, error) {
	opts.Clamp()
	s.logger.Debug("sql", "op", "select", "table", "executions", "limit", opts.Limit, "offset", opts.Offset)

	where := "WHERE 1=1"
	args := []any{}
	if opts.Client > 0 {
		where += " AND client_num = ?"
		args = append(args, opts.Client)
	}
	if opts.Type != "" {
		where += " AND task_type = ?"
		args = append(args, opts.Type)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM executions "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count executions: %w", err)
	}

	query := `SELECT id, task_id, client_num, command, task_type, total_burst, rounds, bytes_sent, state, arrival_at, started_at, ended_at
		 FROM executions ` + where + ` ORDER BY ended_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var recs []*model.ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanExecution.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (*model.ExecutionRecord, error) {
	var rec model.ExecutionRecord
	var taskType, state, arrivalAt string
	var startedAt, endedAt sql.NullString

	err := row.Scan(&rec.ID, &rec.TaskID, &rec.ClientNum, &rec.Command, &taskType,
		&rec.TotalBurst, &rec.Rounds, &rec.BytesSent, &state, &arrivalAt, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	rec.Type = model.TaskType(taskType)
	rec.State = model.TaskState(state)

	if rec.ArrivalAt, err = time.Parse(time.RFC3339Nano, arrivalAt); err != nil {
		return nil, fmt.Errorf("parse arrival_at: %w", err)
	}
	if rec.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.EndedAt, err = parseTimePtr(endedAt); err != nil {
		return nil, fmt.Errorf("parse ended_at: %w", err)
	}
	return &rec, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
