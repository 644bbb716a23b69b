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
	"github.com/agrisense/gatekeeper/internal/repository"
)

// MessageRepository implements port.MessageInbox using PostgreSQL.
type MessageRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMessageRepository wires a PostgreSQL-backed admin inbox.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Add stores a new message.
func (r *MessageRepository) Add(ctx context.Context, message domain.AdminMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := r.builder.Insert("gatekeeper.admin_messages").
		Columns("id", "username", "body", "created_at", "read").
		Values(message.ID, message.Username, message.Text, message.CreatedAt, message.Read)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert message sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// List returns messages newest first, optionally limited to unread ones.
func (r *MessageRepository) List(ctx context.Context, unreadOnly bool) ([]domain.AdminMessage, error) {
	query := r.builder.Select("id", "username", "body", "created_at", "read").
		From("gatekeeper.admin_messages").
		OrderBy("created_at DESC")
	if unreadOnly {
		query = query.Where(squirrel.Eq{"read": false})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list messages sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.AdminMessage
	for rows.Next() {
		var message domain.AdminMessage
		if err := rows.Scan(&message.ID, &message.Username, &message.Text, &message.CreatedAt, &message.Read); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags one message as read.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID string) error {
	query := r.builder.Update("gatekeeper.admin_messages").
		Set("read", true).
		Where(squirrel.Eq{"id": messageID})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build mark read sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ port.MessageInbox = (*MessageRepository)(nil)
