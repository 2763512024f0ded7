package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatloom/chat-service/internal/domain"
)

// ThreadRepository exposes read access to threads plus the direct-message
// activity timestamp. Threads themselves are owned elsewhere.
type ThreadRepository interface {
	// GetByID returns nil (not an error) when the thread does not exist.
	GetByID(ctx context.Context, id string) (*domain.Thread, error)
	SetLastActive(ctx context.Context, threadID string) error
}

type threadRepository struct {
	pool *pgxpool.Pool
}

// NewThreadRepository builds a Postgres-backed thread store.
func NewThreadRepository(pool *pgxpool.Pool) ThreadRepository {
	return &threadRepository{pool: pool}
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*domain.Thread, error) {
	const query = `
        SELECT id, thread_type, community_id, channel_id, watercooler, last_active_at, created_at
        FROM threads WHERE id=$1`

	var thread domain.Thread
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&thread.ID,
		&thread.Type,
		&thread.CommunityID,
		&thread.ChannelID,
		&thread.Watercooler,
		&thread.LastActiveAt,
		&thread.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) SetLastActive(ctx context.Context, threadID string) error {
	const query = `UPDATE threads SET last_active_at=NOW() WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, threadID)
	return err
}
