package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"dokubox/internal/apperr"
	"dokubox/internal/vault"
)

// VaultLocalKey is the fiber locals key holding the request's vault client.
const VaultLocalKey = "vault"

// Opener builds the vault client for one request. An empty token yields a
// signed-out client.
type Opener func(ctx context.Context, token string) (vault.API, error)

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// result is a copy and stays valid after the request completes.
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return utils.CopyString(strings.TrimSpace(token))
}

// Auth resumes the caller's session and stores the client in locals. Requests
// without a live session fail with apperr.ErrUnauthenticated, which the
// error handler turns into 401.
func Auth(open Opener) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return apperr.ErrUnauthenticated
		}
		client, err := open(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(VaultLocalKey, client)
		return c.Next()
	}
}

// Anonymous stores a signed-out client in locals.
func Anonymous(open Opener) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := open(c.UserContext(), "")
		if err != nil {
			return err
		}
		c.Locals(VaultLocalKey, client)
		return c.Next()
	}
}

// Vault returns the client stored by Auth or Anonymous.
func Vault(c *fiber.Ctx) vault.API {
	client, _ := c.Locals(VaultLocalKey).(vault.API)
	return client
}
