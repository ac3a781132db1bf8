package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"chat-relay/internal/message/domain"
)

type Repository interface {
	Insert(ctx context.Context, msg domain.Message) error
	List(ctx context.Context, limit int) ([]domain.Message, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Insert(ctx context.Context, msg domain.Message) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO messages (username, content, timestamp) VALUES ($1, $2, $3)`,
		msg.Username,
		msg.Content,
		msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT username, content, timestamp FROM messages ORDER BY timestamp ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Username, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}

	return messages, nil
}
