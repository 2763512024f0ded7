package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipantRepository tracks thread membership keyed by (thread, user).
// Creation is idempotent; duplicate registrations are not an error.
type ParticipantRepository interface {
	Create(ctx context.Context, threadID, userID string) error
	CreateWithoutNotifications(ctx context.Context, threadID, userID string) error
	Delete(ctx context.Context, threadID, userID string) error
	SetLastSeen(ctx context.Context, threadID, userID string) error
}

type participantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository builds a Postgres-backed participant registry.
func NewParticipantRepository(pool *pgxpool.Pool) ParticipantRepository {
	return &participantRepository{pool: pool}
}

func (r *participantRepository) Create(ctx context.Context, threadID, userID string) error {
	return r.upsert(ctx, threadID, userID, true)
}

func (r *participantRepository) CreateWithoutNotifications(ctx context.Context, threadID, userID string) error {
	return r.upsert(ctx, threadID, userID, false)
}

func (r *participantRepository) upsert(ctx context.Context, threadID, userID string, notifications bool) error {
	const query = `
        INSERT INTO thread_participants (thread_id, user_id, notifications_enabled)
        VALUES ($1,$2,$3)
        ON CONFLICT (thread_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, threadID, userID, notifications)
	return err
}

func (r *participantRepository) Delete(ctx context.Context, threadID, userID string) error {
	const query = `DELETE FROM thread_participants WHERE thread_id=$1 AND user_id=$2`
	_, err := r.pool.Exec(ctx, query, threadID, userID)
	return err
}

func (r *participantRepository) SetLastSeen(ctx context.Context, threadID, userID string) error {
	const query = `
        INSERT INTO thread_participants (thread_id, user_id, notifications_enabled, last_seen_at)
        VALUES ($1,$2,true,NOW())
        ON CONFLICT (thread_id, user_id) DO UPDATE SET last_seen_at=NOW()`
	_, err := r.pool.Exec(ctx, query, threadID, userID)
	return err
}
