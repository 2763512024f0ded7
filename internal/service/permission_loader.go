package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chatloom/chat-service/internal/domain"
	"github.com/chatloom/chat-service/internal/repository"
)

// PermissionResolver resolves community role flags through a Redis
// read-through cache. The cache is best effort; Redis being unreachable only
// costs the extra repository round trip.
type PermissionResolver struct {
	repo   repository.PermissionRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPermissionResolver builds the resolver. The cache client may be nil.
func NewPermissionResolver(repo repository.PermissionRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionResolver{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ForRequest returns a request-scoped loader that memoizes lookups keyed by
// (userID, communityID), so one response never resolves the same pair twice.
func (r *PermissionResolver) ForRequest() *PermissionLoader {
	return &PermissionLoader{resolver: r, memo: make(map[string]*domain.Permissions)}
}

// PermissionLoader is the per-request memoizing view over the resolver.
type PermissionLoader struct {
	resolver *PermissionResolver
	mu       sync.Mutex
	memo     map[string]*domain.Permissions
}

// InCommunity resolves the user's permissions in a community. A nil result
// means no permission record exists.
func (l *PermissionLoader) InCommunity(ctx context.Context, communityID, userID string) (*domain.Permissions, error) {
	key := userID + "|" + communityID

	l.mu.Lock()
	if perms, ok := l.memo[key]; ok {
		l.mu.Unlock()
		return perms, nil
	}
	l.mu.Unlock()

	perms, err := l.resolver.lookup(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.memo[key] = perms
	l.mu.Unlock()
	return perms, nil
}

func (r *PermissionResolver) lookup(ctx context.Context, communityID, userID string) (*domain.Permissions, error) {
	cacheKey := fmt.Sprintf("perms:community:%s:%s", communityID, userID)

	if r.cache != nil {
		raw, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var perms domain.Permissions
			if err := json.Unmarshal([]byte(raw), &perms); err == nil {
				return &perms, nil
			}
		} else if err != redis.Nil {
			r.logger.Debug("permission cache read failed", zap.Error(err))
		}
	}

	perms, err := r.repo.GetUserPermissionsInCommunity(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	if perms != nil && r.cache != nil {
		if raw, err := json.Marshal(perms); err == nil {
			if err := r.cache.Set(ctx, cacheKey, raw, r.ttl).Err(); err != nil {
				r.logger.Debug("permission cache write failed", zap.Error(err))
			}
		}
	}
	return perms, nil
}
