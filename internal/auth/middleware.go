package auth

import (
	"strings"

	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// New returns a middleware that extracts the authenticated identity from the
// Authorization header and stores it in locals. Requests without a valid
// token are rejected with 401.
func New(secret string, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			tokenString = ""
		}

		claims, err := VerifyToken(tokenString, secret)
		if err != nil {
			log.Warn(c.UserContext()).WithMeta(utils.Map{"error": err.Error()}).Logs("Rejected unauthenticated request")
			return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, "User not authenticated"))
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by the middleware.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
