package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatloom/chat-service/internal/domain"
)

// PermissionRepository resolves role flags for a user within a community or
// channel. Absence of a record is reported as nil, not an error.
type PermissionRepository interface {
	GetUserPermissionsInCommunity(ctx context.Context, communityID, userID string) (*domain.Permissions, error)
	GetUserPermissionsInChannel(ctx context.Context, channelID, userID string) (*domain.Permissions, error)
}

type permissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository builds a Postgres-backed permission resolver.
func NewPermissionRepository(pool *pgxpool.Pool) PermissionRepository {
	return &permissionRepository{pool: pool}
}

func (r *permissionRepository) GetUserPermissionsInCommunity(ctx context.Context, communityID, userID string) (*domain.Permissions, error) {
	const query = `
        SELECT user_id, reputation, is_owner, is_moderator
        FROM community_permissions WHERE community_id=$1 AND user_id=$2`
	return r.scanPermissions(r.pool.QueryRow(ctx, query, communityID, userID))
}

func (r *permissionRepository) GetUserPermissionsInChannel(ctx context.Context, channelID, userID string) (*domain.Permissions, error) {
	const query = `
        SELECT user_id, reputation, is_owner, is_moderator
        FROM channel_permissions WHERE channel_id=$1 AND user_id=$2`
	return r.scanPermissions(r.pool.QueryRow(ctx, query, channelID, userID))
}

func (r *permissionRepository) scanPermissions(row pgx.Row) (*domain.Permissions, error) {
	var perms domain.Permissions
	if err := row.Scan(
		&perms.UserID,
		&perms.Reputation,
		&perms.IsOwner,
		&perms.IsModerator,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &perms, nil
}
