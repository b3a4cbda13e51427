package handler

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/gofiber/fiber/v2"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
)

const imageField = "image"

// formField reads a multipart or urlencoded field and reports whether the
// client sent it at all.
func formField(c *fiber.Ctx, key string) (string, bool) {
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
		return "", false
	}
	args := c.Request().PostArgs()
	if args.Has(key) {
		return string(args.Peek(key)), true
	}
	return "", false
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field, v string) (*time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	return nil, apperr.Invalid(field, "must be YYYY-MM-DD or RFC 3339")
}

func optionalDate(c *fiber.Ctx, field string) (*time.Time, error) {
	v, ok := formField(c, field)
	if !ok || v == "" {
		return nil, nil
	}
	return parseDate(field, v)
}

// stagedImage is an uploaded image part written to a temp file so it can be
// handed on as a local asset.
type stagedImage struct {
	asset model.ImageAsset
	dir   string
}

func (s *stagedImage) cleanup() {
	if s != nil {
		os.RemoveAll(s.dir)
	}
}

// stageImage saves the image part, if any, to a temp file.
func stageImage(c *fiber.Ctx, maxBytes int64) (*stagedImage, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, apperr.Invalid(imageField, fmt.Sprintf("exceeds the %s limit", units.HumanSize(float64(maxBytes))))
	}

	dir, err := os.MkdirTemp("", "dokubox-upload-")
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	return &stagedImage{
		asset: model.ImageAsset{URI: path, Name: fh.Filename, MimeType: contentType(fh)},
		dir:   dir,
	}, nil
}

func contentType(fh *multipart.FileHeader) string {
	return fh.Header.Get(fiber.HeaderContentType)
}

func boolField(c *fiber.Ctx, key string) bool {
	v, ok := formField(c, key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}
