package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dokubox/internal/apperr"
	"dokubox/internal/http/middleware"
	"dokubox/internal/model"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string     `json:"token"`
	UserID    string     `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type passwordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type nameChange struct {
	Name string `json:"name"`
}

func toSessionResponse(s model.Session) sessionResponse {
	out := sessionResponse{Token: s.Token, UserID: s.UserID}
	if !s.ExpiresAt.IsZero() {
		out.ExpiresAt = &s.ExpiresAt
	}
	return out
}

func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Invalid("body", "malformed request body")
	}
	return nil
}

// Register creates an account and signs it in.
//
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentials true "name, email and password"
// @Success 201 {object} sessionResponse
// @Failure 400 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /auth/register [post]
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in credentials
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		sess, err := middleware.Vault(c).Register(c.UserContext(), in.Name, in.Email, in.Password)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toSessionResponse(sess))
	}
}

// Login signs in with email and password.
//
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentials true "email and password"
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /auth/login [post]
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in credentials
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		sess, err := middleware.Vault(c).Login(c.UserContext(), in.Email, in.Password)
		if err != nil {
			return err
		}
		return c.JSON(toSessionResponse(sess))
	}
}

// CurrentUser returns the signed-in user.
//
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errorPayload
// @Router /auth/me [get]
func CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := middleware.Vault(c).CurrentUser(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

func ChangePassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in passwordChange
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		if err := middleware.Vault(c).ChangePassword(c.UserContext(), in.CurrentPassword, in.NewPassword); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func UpdateName() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in nameChange
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		u, err := middleware.Vault(c).UpdateName(c.UserContext(), in.Name)
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

func SignOut() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.Vault(c).SignOut(c.UserContext()); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
