package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/chatloom/chat-service/internal/domain"
	"github.com/chatloom/chat-service/internal/repository"
	apperrors "github.com/chatloom/chat-service/pkg/util/errorutil"
)

const currentUserKey = "current_user"

// Middleware validates bearer tokens and loads the current user.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle resolves the current user when a bearer token is present. Routes that
// require authentication enforce it themselves; the message operations return
// their own Unauthenticated error when no user was resolved.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(currentUserKey, user)
	return c.Next()
}

// CurrentUser retrieves the authenticated user, or nil when anonymous.
func CurrentUser(c *fiber.Ctx) *domain.User {
	val := c.Locals(currentUserKey)
	if val == nil {
		return nil
	}
	user, _ := val.(*domain.User)
	return user
}
