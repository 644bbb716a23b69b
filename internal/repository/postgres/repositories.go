// Package postgres persists the durable side of the service: audit trails
// and the contact-admin inbox. The shared key space itself lives in Redis.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor abstracts pool and transaction execution.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles the PostgreSQL-backed stores.
type Repositories struct {
	Audit    *AuditRepository
	Messages *MessageRepository
}

// NewRepositories wires all repositories onto the shared pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Audit:    NewAuditRepository(pool),
		Messages: NewMessageRepository(pool),
	}
}
