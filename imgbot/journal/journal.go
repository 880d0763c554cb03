// Package journal records the outcome of every photo the bot processed.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

const insertOperation = `INSERT INTO operations (id, chat_id, action, outcome, detail, duration_ms, created_at)
VALUES (:id, :chat_id, :action, :outcome, :detail, :duration_ms, :created_at)`

// Operation is one row of the operations table.
type Operation struct {
	ID         uuid.UUID `db:"id"`
	ChatID     int64     `db:"chat_id"`
	Action     string    `db:"action"`
	Outcome    string    `db:"outcome"`
	Detail     string    `db:"detail"`
	DurationMS int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"`
}

// Postgres stores entries in the operations table.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a Postgres recorder, or a no-op recorder when db is nil.
func New(db *sqlx.DB) dispatch.Recorder {
	if db == nil {
		return dispatch.NopRecorder{}
	}
	return NewPostgres(db)
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// FromEntry converts a dispatcher entry into a row with a fresh id.
func FromEntry(e dispatch.Entry, at time.Time) Operation {
	return Operation{
		ID:         uuid.New(),
		ChatID:     e.ChatID,
		Action:     e.Action,
		Outcome:    e.Outcome,
		Detail:     e.Detail,
		DurationMS: logger.RoundMS(e.Duration).Milliseconds(),
		CreatedAt:  at.UTC(),
	}
}

// Record implements dispatch.Recorder.
func (p *Postgres) Record(ctx context.Context, e dispatch.Entry) error {
	op := FromEntry(e, p.now())
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertOperation, op); err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	logger.Debug(ctx, "journal", "journal.record",
		slog.String("status", "ok"),
		slog.String("outcome", op.Outcome),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
