package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"dokubox/internal/apperr"
	"dokubox/internal/http/middleware"
	"dokubox/internal/model"
	"dokubox/internal/query"
)

// documentList is the list response body.
type documentList struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ListDocuments returns the caller's documents, sorted remotely and then
// narrowed by the optional q and category filters.
//
// @Summary List documents
// @Tags documents
// @Security BearerAuth
// @Param sort query string false "uploadDate, title or expirationDate"
// @Param order query string false "ASC or DESC"
// @Param q query string false "text filter on title, store and notes"
// @Param category query string false "category id"
// @Success 200 {object} documentList
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListDocuments() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.Vault(c)
		docs, err := v.ListForCurrentUser(c.UserContext(),
			model.SortField(c.Query("sort")),
			model.SortOrder(c.Query("order")),
		)
		if err != nil {
			return err
		}
		docs = v.Filter(docs, query.Predicate{Text: c.Query("q"), CategoryID: c.Query("category")})
		return c.JSON(documentList{Items: docs, Total: len(docs)})
	}
}

// defaultExpiryWindow is used when ExpiringDocuments gets no days parameter.
const defaultExpiryWindow = 30 * 24 * time.Hour

// maxExpiryDays bounds the days parameter well below time.Duration overflow.
const maxExpiryDays = 36500

// ExpiringDocuments returns the caller's documents that expire within the
// given number of days, soonest first. Expired documents are left out.
//
// @Summary Documents expiring soon
// @Tags documents
// @Security BearerAuth
// @Param days query int false "window in days, 0 to 36500, default 30"
// @Success 200 {object} documentList
// @Failure 400 {object} errorPayload
// @Router /documents/expiring [get]
func ExpiringDocuments(now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window := defaultExpiryWindow
		if raw := c.Query("days"); raw != "" {
			days, err := strconv.Atoi(raw)
			if err != nil || days < 0 {
				return apperr.Invalid("days", "must be a non-negative integer")
			}
			if days > maxExpiryDays {
				return apperr.Invalid("days", "must be at most "+strconv.Itoa(maxExpiryDays))
			}
			window = time.Duration(days) * 24 * time.Hour
		}

		docs, err := middleware.Vault(c).ListForCurrentUser(c.UserContext(), model.SortByExpirationDate, model.Ascending)
		if err != nil {
			return err
		}
		docs = query.ExpiringWithin(docs, now(), window)
		return c.JSON(documentList{Items: docs, Total: len(docs)})
	}
}

// GetDocument returns one document.
//
// @Summary Get document
// @Tags documents
// @Security BearerAuth
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := middleware.Vault(c).GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// CreateDocument stores a new document from a multipart form with an
// optional "image" file part.
//
// @Summary Create document
// @Tags documents
// @Security BearerAuth
// @Accept multipart/form-data
// @Param title formData string true "title"
// @Param category_id formData string true "category id"
// @Param store formData string false "store"
// @Param notes formData string false "notes"
// @Param upload_date formData string false "YYYY-MM-DD"
// @Param expiration_date formData string false "YYYY-MM-DD"
// @Param image formData file false "image attachment"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /documents [post]
func CreateDocument(maxUploadBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		draft := model.Draft{}
		draft.Title, _ = formField(c, "title")
		draft.CategoryID, _ = formField(c, "category_id")
		draft.Store, _ = formField(c, "store")
		draft.Notes, _ = formField(c, "notes")

		var err error
		if draft.UploadDate, err = optionalDate(c, "upload_date"); err != nil {
			return err
		}
		if draft.ExpirationDate, err = optionalDate(c, "expiration_date"); err != nil {
			return err
		}

		img, err := stageImage(c, maxUploadBytes)
		if err != nil {
			return err
		}
		defer img.cleanup()
		if img != nil {
			draft.Image = &img.asset
		}

		doc, err := middleware.Vault(c).Create(c.UserContext(), draft)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// UpdateDocument edits a document. With replace set (PUT) every scalar field
// is taken from the form and absent ones are stored empty; otherwise (PATCH)
// only the fields sent are changed. An "image" part replaces the attachment
// and remove_image=true clears it.
//
// @Summary Update document
// @Tags documents
// @Security BearerAuth
// @Accept multipart/form-data
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [put]
// @Router /documents/{id} [patch]
func UpdateDocument(maxUploadBytes int64, replace bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch model.Patch
		for field, dst := range map[string]**string{
			"title":       &patch.Title,
			"category_id": &patch.CategoryID,
			"store":       &patch.Store,
			"notes":       &patch.Notes,
		} {
			v, ok := formField(c, field)
			if ok || replace {
				*dst = &v
			}
		}

		v, sent := formField(c, "expiration_date")
		switch {
		case sent && v != "":
			t, err := parseDate("expiration_date", v)
			if err != nil {
				return err
			}
			patch.ExpirationDate = t
		case sent || replace:
			patch.ClearExpiration = true
		}

		img, err := stageImage(c, maxUploadBytes)
		if err != nil {
			return err
		}
		defer img.cleanup()
		switch {
		case img != nil:
			patch.ImageChanged = true
			patch.Image = &img.asset
		case boolField(c, "remove_image"):
			patch.ImageChanged = true
		}

		doc, err := middleware.Vault(c).Update(c.UserContext(), c.Params("id"), patch)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document.
//
// @Summary Delete document
// @Tags documents
// @Security BearerAuth
// @Param id path string true "document id"
// @Success 204
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.Vault(c).Delete(c.UserContext(), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListCategories returns the fixed taxonomy.
//
// @Summary List categories
// @Tags documents
// @Success 200 {array} model.Category
// @Router /categories [get]
func ListCategories() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(middleware.Vault(c).ListCategories())
	}
}

// ListNotifications is a placeholder; expiry reminders are not delivered.
//
// @Summary List notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string][]any
// @Failure 401 {object} errorPayload
// @Router /notifications [get]
func ListNotifications() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": []any{}})
	}
}

// AcknowledgeNotification accepts mark-read and delete requests. With no
// notifications stored there is nothing to change.
//
// @Summary Mark notification read or delete it
// @Tags notifications
// @Security BearerAuth
// @Param id path string true "notification id"
// @Success 204
// @Failure 401 {object} errorPayload
// @Router /notifications/{id}/read [patch]
// @Router /notifications/{id} [delete]
func AcknowledgeNotification() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}
}
