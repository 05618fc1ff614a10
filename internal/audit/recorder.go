// Package audit persists and queries the append-only access audit log.
// Writes are best effort: an authorization decision is never blocked or
// failed because the log could not be written.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-media/backoffice/internal/access"
)

// Recorder appends one audit event. Implementations may return an error;
// whether that error matters is the caller's choice (see BestEffort).
type Recorder interface {
	Record(ctx context.Context, event access.AuditEvent) error
}

// PGRecorder writes audit events straight into Postgres.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPGRecorder returns a Postgres-backed recorder.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

// Record inserts the event. Events arriving without an ID are assigned one;
// there is no update or delete path for this table.
func (r *PGRecorder) Record(ctx context.Context, event access.AuditEvent) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	if event.Action == "" || event.PagePath == "" {
		return errors.New("audit: event requires action and page path")
	}
	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_audit_log (id, user_id, user_email, department, page_path, action, ip_address, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		id,
		event.UserID,
		event.UserEmail,
		optionalText(string(event.Department)),
		event.PagePath,
		event.Action,
		optionalText(event.IPAddress),
		optionalText(event.UserAgent),
		toPgTime(event.OccurredAt),
	)
	return err
}

var _ Recorder = (*PGRecorder)(nil)

// BestEffort wraps a Recorder with at-most-once, fire-and-forget semantics:
// errors and panics from the inner recorder are logged at debug level and
// discarded, and Record always returns nil.
type BestEffort struct {
	inner  Recorder
	logger *slog.Logger
}

// NewBestEffort wraps the given recorder.
func NewBestEffort(inner Recorder, logger *slog.Logger) *BestEffort {
	if logger == nil {
		logger = slog.Default()
	}
	return &BestEffort{inner: inner, logger: logger}
}

// Record delivers the event if it can and swallows the failure if it cannot.
func (b *BestEffort) Record(ctx context.Context, event access.AuditEvent) (err error) {
	if b == nil || b.inner == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Debug("audit recorder panic", slog.Any("panic", r))
			err = nil
		}
	}()
	if recordErr := b.inner.Record(ctx, event); recordErr != nil {
		b.logger.Debug("audit event dropped", slog.Any("error", recordErr), slog.String("action", event.Action))
	}
	return nil
}

var _ access.AuditSink = (*BestEffort)(nil)

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
