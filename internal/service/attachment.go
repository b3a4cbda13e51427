package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
	"dokubox/internal/storage"
)

// AttachmentConfig fixes the parts of the public view URL and the size cap.
type AttachmentConfig struct {
	PublicEndpoint string
	Project        string
	// MaxBytes rejects larger files. Zero means unlimited.
	MaxBytes int64
}

// AttachmentService moves local image files into the blob store.
type AttachmentService struct {
	store   storage.Storage
	cfg     AttachmentConfig
	metrics *UploadMetrics
	log     *zap.Logger
}

// NewAttachmentService builds the service. metrics may be nil.
func NewAttachmentService(store storage.Storage, cfg AttachmentConfig, metrics *UploadMetrics, log *zap.Logger) *AttachmentService {
	cfg.PublicEndpoint = strings.TrimRight(cfg.PublicEndpoint, "/")
	return &AttachmentService{store: store, cfg: cfg, metrics: metrics, log: log}
}

// ViewURL is the public URL of a blob. It depends on fileID alone.
func (s *AttachmentService) ViewURL(fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		s.cfg.PublicEndpoint,
		url.PathEscape(s.store.Bucket()),
		url.PathEscape(fileID),
		url.QueryEscape(s.cfg.Project),
	)
}

// Upload streams the local file behind asset to the blob store under a fresh
// file id. Every failure wraps apperr.ErrUpload; nothing is retried.
func (s *AttachmentService) Upload(ctx context.Context, asset model.ImageAsset) (model.ImageAttachment, error) {
	att, err := s.upload(ctx, asset)
	if err != nil {
		s.metrics.failed()
		s.log.Warn("attachment_upload_failed", zap.String("name", asset.Name), zap.Error(err))
		return model.ImageAttachment{}, err
	}
	s.metrics.succeeded(att.SizeBytes)
	s.log.Info("attachment_uploaded",
		zap.String("file_id", att.FileID),
		zap.Int64("size_bytes", att.SizeBytes),
	)
	return att, nil
}

func (s *AttachmentService) upload(ctx context.Context, asset model.ImageAsset) (model.ImageAttachment, error) {
	path, err := localPath(asset.URI)
	if err != nil {
		return model.ImageAttachment{}, apperr.Upload("resolve asset", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.ImageAttachment{}, apperr.Upload("open asset", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return model.ImageAttachment{}, apperr.Upload("stat asset", err)
	}
	if st.IsDir() {
		return model.ImageAttachment{}, apperr.Upload("stat asset", fmt.Errorf("%s is a directory", path))
	}
	size := st.Size()
	if s.cfg.MaxBytes > 0 && size > s.cfg.MaxBytes {
		return model.ImageAttachment{}, apperr.Upload("check size", fmt.Errorf("%s exceeds the %s limit",
			units.HumanSize(float64(size)), units.HumanSize(float64(s.cfg.MaxBytes))))
	}

	name := asset.Name
	if name == "" {
		name = filepath.Base(path)
	}
	mimeType := asset.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileID := uuid.NewString()
	_, err = s.store.Put(ctx, fileID, f, storage.PutObjectOptions{
		Size:        size,
		ContentType: mimeType,
		Metadata:    map[string]string{"original-filename": name},
	})
	if err != nil {
		return model.ImageAttachment{}, apperr.Upload("put blob", err)
	}

	return model.ImageAttachment{
		FileID:    fileID,
		URL:       s.ViewURL(fileID),
		MimeType:  mimeType,
		SizeBytes: size,
	}, nil
}

// Delete removes a blob. A blob that is already gone is not an error.
func (s *AttachmentService) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return nil
	}
	err := s.store.Delete(ctx, fileID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	s.log.Info("attachment_deleted", zap.String("file_id", fileID))
	return nil
}

// localPath accepts a plain path or a file:// URI.
func localPath(uri string) (string, error) {
	if uri == "" {
		return "", errors.New("asset uri is empty")
	}
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported asset scheme %q", u.Scheme)
	}
	return u.Path, nil
}
