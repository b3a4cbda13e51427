package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"dokubox/internal/apperr"
	"dokubox/internal/storage"
)

func fileKey(c *fiber.Ctx, blobs storage.Storage) (string, error) {
	bucket, fileID := c.Params("bucket"), c.Params("fileId")
	if bucket != blobs.Bucket() {
		return "", fmt.Errorf("bucket %q: %w", bucket, apperr.ErrNotFound)
	}
	return fileID, nil
}

// ViewFile streams an attachment. Its path is the public view URL handed out
// with every uploaded image.
//
// @Summary View attachment
// @Tags storage
// @Param bucket path string true "bucket"
// @Param fileId path string true "file id"
// @Param project query string false "project id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /storage/buckets/{bucket}/files/{fileId}/view [get]
func ViewFile(blobs storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := fileKey(c, blobs)
		if err != nil {
			return err
		}
		body, info, err := blobs.Get(c.UserContext(), key)
		if err != nil {
			return err
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		// fasthttp closes body once it is sent.
		return c.SendStream(body, int(info.Size))
	}
}

// DownloadFile redirects to a short-lived presigned URL.
func DownloadFile(blobs storage.Storage, expiry time.Duration) fiber.Handler {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return func(c *fiber.Ctx) error {
		key, err := fileKey(c, blobs)
		if err != nil {
			return err
		}
		u, err := blobs.PresignGet(c.UserContext(), key, expiry)
		if err != nil {
			return err
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
