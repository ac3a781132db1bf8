package db

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"chat-relay/internal/common/logger"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp)`,
}

// EnsureSchema creates the tables the relay needs if they do not exist yet.
// Runs at startup, before any listener is up.
func EnsureSchema(ctx context.Context, log *logger.Logger, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Info("database schema ensured")
	return nil
}
