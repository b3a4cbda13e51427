package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"dokubox/internal/http/middleware"
	"dokubox/internal/storage"
)

// Pinger is the database health dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the routes are wired to.
type Deps struct {
	DB    Pinger
	Open  middleware.Opener
	Blobs storage.Storage
	// PresignExpiry bounds download redirect URLs.
	PresignExpiry time.Duration
	// MaxUploadBytes caps a single image part. Zero means unlimited.
	MaxUploadBytes int64
}

// RegisterRoutes attaches every HTTP route to app. Errors returned by
// handlers are rendered by ErrorHandler.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	anon := middleware.Anonymous(d.Open)
	auth := middleware.Auth(d.Open)

	a := app.Group("/auth")
	a.Post("/register", anon, Register())
	a.Post("/login", anon, Login())
	a.Get("/me", auth, CurrentUser())
	a.Put("/password", auth, ChangePassword())
	a.Put("/name", auth, UpdateName())
	a.Post("/logout", auth, SignOut())

	docs := app.Group("/documents", auth)
	docs.Get("/", ListDocuments())
	docs.Post("/", CreateDocument(d.MaxUploadBytes))
	docs.Get("/expiring", ExpiringDocuments(time.Now))
	docs.Get("/:id", GetDocument())
	docs.Put("/:id", UpdateDocument(d.MaxUploadBytes, true))
	docs.Patch("/:id", UpdateDocument(d.MaxUploadBytes, false))
	docs.Delete("/:id", DeleteDocument())

	app.Get("/categories", anon, ListCategories())
	app.Get("/notifications", auth, ListNotifications())
	app.Patch("/notifications/:id/read", auth, AcknowledgeNotification())
	app.Delete("/notifications/:id", auth, AcknowledgeNotification())

	files := app.Group("/storage/buckets/:bucket/files/:fileId")
	files.Get("/view", ViewFile(d.Blobs))
	files.Get("/download", DownloadFile(d.Blobs, d.PresignExpiry))
}

// HealthCheck reports whether the database answers.
//
// @Summary Readiness probe
// @Tags ops
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
