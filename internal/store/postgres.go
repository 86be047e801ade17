package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/rate-limiter-go/internal/audit"
)

// PostgresAuditStore is a PostgreSQL implementation of audit.Store. Both
// event kinds land in one quota_events table, discriminated by event_type.
//
// Schema:
//
//	CREATE TABLE quota_events (
//	    id               BIGSERIAL PRIMARY KEY,
//	    event_type       TEXT        NOT NULL,
//	    client_id        TEXT        NOT NULL,
//	    quota_limit      BIGINT      NOT NULL,
//	    reset_in_seconds BIGINT,
//	    client_ip        TEXT,
//	    user_agent       TEXT,
//	    request_id       TEXT,
//	    occurred_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresAuditStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditStore creates a Postgres-backed audit event store.
func NewPostgresAuditStore(pool *pgxpool.Pool) *PostgresAuditStore {
	return &PostgresAuditStore{pool: pool}
}

func (p *PostgresAuditStore) SaveWindowStarted(ctx context.Context, event *audit.WindowStartedEvent) error {
	query := `
		INSERT INTO quota_events (event_type, client_id, quota_limit, client_ip, user_agent, request_id, occurred_at)
		VALUES ('window_started', $1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		event.ClientID,
		event.Limit,
		event.ClientIP,
		event.UserAgent,
		nullableString(event.RequestID),
		event.StartedAt,
	)

	return err
}

func (p *PostgresAuditStore) SaveQuotaExceeded(ctx context.Context, event *audit.QuotaExceededEvent) error {
	query := `
		INSERT INTO quota_events (event_type, client_id, quota_limit, reset_in_seconds, client_ip, user_agent, request_id, occurred_at)
		VALUES ('quota_exceeded', $1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		event.ClientID,
		event.Limit,
		event.ResetIn,
		event.ClientIP,
		event.UserAgent,
		nullableString(event.RequestID),
		event.DeniedAt,
	)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Compile-time check.
var _ audit.Store = (*PostgresAuditStore)(nil)
