package store

import (
	"context"

	"github.com/me/remsh/pkg/model"
)

// Store defines the persistence layer for the execution-history audit
// log. Rows are append-only: the scheduler writes one per finished task
// and never reads them back.
type Store interface {
	// RecordExecution appends one finished-task row.
	RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error

	// GetExecution fetches a single row by id. Returns (nil, nil) when absent.
	GetExecution(ctx context.Context, id string) (*model.ExecutionRecord, error)

	// ListExecutions returns rows newest-first with the total count.
	ListExecutions(ctx context.Context, opts model.ListOptions) ([]*model.ExecutionRecord, int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
