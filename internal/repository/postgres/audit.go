package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
)

// AuditRepository implements port.AuditLog using PostgreSQL.
type AuditRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository wires a PostgreSQL-backed audit log.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// RecordTermination inserts one termination row.
func (r *AuditRepository) RecordTermination(ctx context.Context, event domain.SessionTerminatedEvent) error {
	at := event.TerminatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	query := r.builder.Insert("gatekeeper.session_terminations").
		Columns("id", "session_id", "username", "role", "kind", "message", "terminated_at").
		Values(uuid.NewString(), event.SessionID, event.Username, string(event.Role), string(event.Kind), event.Message, at)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert termination sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert termination: %w", err)
	}
	return nil
}

// RecordDirectoryChange inserts one directory mutation row.
func (r *AuditRepository) RecordDirectoryChange(ctx context.Context, event domain.DirectoryChangedEvent) error {
	at := event.ChangedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	query := r.builder.Insert("gatekeeper.directory_changes").
		Columns("id", "kind", "username", "changed_by", "changed_at").
		Values(uuid.NewString(), string(event.Kind), event.Username, event.ChangedBy, at)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert directory change sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert directory change: %w", err)
	}
	return nil
}

// ListTerminations returns the most recent termination events, newest first.
func (r *AuditRepository) ListTerminations(ctx context.Context, limit int) ([]domain.SessionTerminatedEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.builder.Select("session_id", "username", "role", "kind", "message", "terminated_at").
		From("gatekeeper.session_terminations").
		OrderBy("terminated_at DESC").
		Limit(uint64(limit))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list terminations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list terminations: %w", err)
	}
	defer rows.Close()

	var events []domain.SessionTerminatedEvent
	for rows.Next() {
		var (
			event domain.SessionTerminatedEvent
			role  string
			kind  string
		)
		if err := rows.Scan(&event.SessionID, &event.Username, &role, &kind, &event.Message, &event.TerminatedAt); err != nil {
			return nil, fmt.Errorf("scan termination: %w", err)
		}
		event.Role = domain.Role(role)
		event.Kind = domain.ViolationKind(kind)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terminations: %w", err)
	}
	return events, nil
}

var _ port.AuditLog = (*AuditRepository)(nil)
