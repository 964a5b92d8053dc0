package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all remsh tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS executions (
		id          TEXT PRIMARY KEY,
		task_id     INTEGER NOT NULL,
		client_num  INTEGER NOT NULL,
		command     TEXT NOT NULL,
		task_type   TEXT NOT NULL,
		total_burst INTEGER NOT NULL,
		rounds      INTEGER NOT NULL DEFAULT 0,
		bytes_sent  INTEGER NOT NULL DEFAULT 0,
		state       TEXT NOT NULL DEFAULT 'ENDED',
		arrival_at  TEXT NOT NULL,
		started_at  TEXT,
		ended_at    TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_executions_client_num ON executions(client_num)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_task_type ON executions(task_type)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_ended_at ON executions(ended_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
