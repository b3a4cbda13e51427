package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"dokubox/docs"
)

// Swagger serves the UI and doc.json. The document's host follows the
// request's Host header and falls back to fallbackHost when there is none.
//
// @Summary Swagger UI
// @Tags ops
// @Router /swagger/{path} [get]
func Swagger(fallbackHost string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = swaggerHost(c.Get(fiber.HeaderHost), fallbackHost)
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}

func swaggerHost(header, fallback string) string {
	if header != "" {
		return strings.Clone(header)
	}
	return fallback
}
