package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

// CallbackTokenMiddleware gates the M-Pesa callback endpoint on a shared-secret
// query token. The check is a pure predicate over request metadata; the token
// itself comes from static configuration.
func CallbackTokenMiddleware(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			log.Println("[Callback] no callback token configured, rejecting request")
			return fiber.NewError(fiber.StatusUnauthorized, "callback token not configured")
		}

		provided := c.Query("token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid callback token")
		}

		return c.Next()
	}
}
