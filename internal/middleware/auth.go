package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// ActorKey is the fiber.Locals key holding the authenticated record
const ActorKey = "actor"

// ResolveFunc loads the permanent record a token subject points at
type ResolveFunc[PT models.Actor] func(ctx context.Context, id string) (PT, error)

// RequireActor authenticates the bearer token and attaches the record of the given kind.
// Tokens of another kind are rejected the same way as forged ones.
func RequireActor[PT models.Actor](tokens *services.TokenIssuer, kind models.ActorKind, resolve ResolveFunc[PT]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return reject(c, fiber.StatusUnauthorized, models.CodeUnauthenticated, "Authorization token is missing or malformed")
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil || claims.Kind != kind {
			return reject(c, fiber.StatusUnauthorized, models.CodeUnauthenticated, "Invalid or expired token")
		}

		actor, err := resolve(c.UserContext(), claims.Subject)
		if err != nil {
			var domainErr *models.Error
			if errors.As(err, &domainErr) && domainErr.Code == models.CodeNotFound {
				return reject(c, fiber.StatusNotFound, models.CodeNotFound, domainErr.Message)
			}
			if models.CodeOf(err) == models.CodeStorageUnavailable {
				return reject(c, fiber.StatusServiceUnavailable, models.CodeStorageUnavailable, "Service temporarily unavailable")
			}
			log.WithError(err).WithField("kind", kind).Error("❌ Failed to resolve token subject")
			return reject(c, fiber.StatusInternalServerError, models.CodeInternal, "Internal server error")
		}

		c.Locals(ActorKey, actor)
		return c.Next()
	}
}

// Actor returns the record attached by RequireActor
func Actor[PT models.Actor](c *fiber.Ctx) (PT, bool) {
	actor, ok := c.Locals(ActorKey).(PT)
	return actor, ok
}
