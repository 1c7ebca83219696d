package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alertframe/alertframe/internal/domain"
)

// CronAuth guards the sweep trigger with a shared bearer secret. An empty
// secret disables the check for local development.
func CronAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return domain.ErrUnauthorized
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}
