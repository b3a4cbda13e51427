package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/category"
	"dokubox/internal/model"
	"dokubox/internal/repository"
)

// BlobPolicy decides what happens to blobs a document stops referencing.
// The zero value leaves them in the store.
type BlobPolicy struct {
	PurgeReplaced bool
}

// DocumentService is the owner-scoped view of the document collection.
// Every operation acts on behalf of Identity's current user.
type DocumentService struct {
	repo        repository.DocumentRepository
	identity    Identity
	attachments Attachments
	categories  category.Provider
	policy      BlobPolicy
	log         *zap.Logger
}

func NewDocumentService(
	repo repository.DocumentRepository,
	identity Identity,
	attachments Attachments,
	categories category.Provider,
	policy BlobPolicy,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:        repo,
		identity:    identity,
		attachments: attachments,
		categories:  categories,
		policy:      policy,
		log:         log,
	}
}

// AssertOwned fails with apperr.ErrAccessDenied unless user owns doc.
func AssertOwned(doc *model.Document, user model.User) error {
	if doc.OwnerID != user.ID {
		return fmt.Errorf("document %q: %w", doc.ID, apperr.ErrAccessDenied)
	}
	return nil
}

// ListForCurrentUser returns the user's documents ordered by sortBy. Empty
// arguments default to newest upload first.
func (s *DocumentService) ListForCurrentUser(ctx context.Context, sortBy model.SortField, order model.SortOrder) (_ []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.ListForCurrentUser")
	defer func() { endSpan(span, err) }()

	if sortBy == "" {
		sortBy = model.SortByUploadDate
	}
	if order == "" {
		order = model.Descending
	}
	if !sortBy.Valid() {
		return nil, apperr.Invalid("sort", fmt.Sprintf("unknown field %q", sortBy))
	}
	if !order.Valid() {
		return nil, apperr.Invalid("order", fmt.Sprintf("unknown direction %q", order))
	}

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	docs, err := s.repo.List(ctx, repository.ListQuery{OwnerID: user.ID, SortBy: sortBy, SortOrder: order})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		s.decorate(&docs[i])
	}
	return docs, nil
}

// GetByID returns a document owned by the current user.
func (s *DocumentService) GetByID(ctx context.Context, id string) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.GetByID")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("document.id", id))

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.owned(ctx, id, user)
	if err != nil {
		return nil, err
	}
	s.decorate(doc)
	return doc, nil
}

// Create validates the draft, uploads its image if any, then stores the
// record for the current user. A blob uploaded for a record that then fails
// to persist is deleted again.
func (s *DocumentService) Create(ctx context.Context, draft model.Draft) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer func() { endSpan(span, err) }()

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(draft.Title, draft.CategoryID); err != nil {
		return nil, err
	}
	s.checkCategory(draft.CategoryID, user.ID)

	doc := &model.Document{
		ID:             uuid.NewString(),
		OwnerID:        user.ID,
		Title:          strings.TrimSpace(draft.Title),
		CategoryID:     draft.CategoryID,
		Store:          draft.Store,
		ExpirationDate: draft.ExpirationDate,
		Notes:          draft.Notes,
	}
	if draft.UploadDate != nil {
		doc.UploadDate = *draft.UploadDate
	}

	if draft.Image != nil {
		att, err := s.attachments.Upload(ctx, *draft.Image)
		if err != nil {
			return nil, err
		}
		doc.ImageURL, doc.ImageFileID = att.URL, att.FileID
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		err = fmt.Errorf("create document: %w", err)
		if doc.ImageFileID != "" {
			return nil, s.discard(ctx, doc.ImageFileID, err)
		}
		return nil, err
	}

	s.decorate(stored)
	s.log.Info("document_created",
		zap.String("document_id", stored.ID),
		zap.String("user_id", user.ID),
		zap.Bool("has_image", stored.HasImage()),
	)
	return stored, nil
}

// Update applies patch to a document the current user owns. Fields left nil
// in the patch keep their stored values. When ImageChanged is set, a new
// image replaces the attachment and a nil image clears it.
func (s *DocumentService) Update(ctx context.Context, id string, patch model.Patch) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("document.id", id))

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.owned(ctx, id, user)
	if err != nil {
		return nil, err
	}

	u := merge(existing, patch)
	if err := s.validate(u.Title, u.CategoryID); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		s.checkCategory(u.CategoryID, user.ID)
	}

	var uploaded string
	if patch.ImageChanged {
		u.Image = &repository.AttachmentRef{}
		if patch.Image != nil {
			att, err := s.attachments.Upload(ctx, *patch.Image)
			if err != nil {
				return nil, err
			}
			u.Image.URL, u.Image.FileID = att.URL, att.FileID
			uploaded = att.FileID
		}
	}

	stored, err := s.repo.Update(ctx, id, u)
	if err != nil {
		err = fmt.Errorf("update document: %w", err)
		if uploaded != "" {
			return nil, s.discard(ctx, uploaded, err)
		}
		return nil, err
	}

	if patch.ImageChanged && existing.ImageFileID != "" && existing.ImageFileID != uploaded {
		s.release(ctx, existing.ImageFileID)
	}

	s.decorate(stored)
	s.log.Info("document_updated",
		zap.String("document_id", id),
		zap.Int("revision", stored.Revision),
		zap.Bool("image_changed", patch.ImageChanged),
	)
	return stored, nil
}

// Delete removes a document the current user owns.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("document.id", id))

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	doc, err := s.owned(ctx, id, user)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if doc.HasImage() {
		s.release(ctx, doc.ImageFileID)
	}
	s.log.Info("document_deleted", zap.String("document_id", id), zap.String("user_id", user.ID))
	return nil
}

func (s *DocumentService) owned(ctx context.Context, id string, user model.User) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwned(doc, user); err != nil {
		s.log.Warn("document_access_denied", zap.String("document_id", id), zap.String("user_id", user.ID))
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) validate(title, categoryID string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Invalid("title", "is required")
	}
	if categoryID == "" && len(s.categories.ListAll()) > 0 {
		return apperr.Invalid("categoryId", "is required")
	}
	return nil
}

// checkCategory warns about ids outside the taxonomy. They are stored as sent
// and read back as Uncategorized.
func (s *DocumentService) checkCategory(categoryID, userID string) {
	if categoryID != "" && !s.categories.Exists(categoryID) {
		s.log.Warn("unknown_category", zap.String("category_id", categoryID), zap.String("user_id", userID))
	}
}

func (s *DocumentService) decorate(d *model.Document) {
	d.CategoryName = s.categories.ResolveName(d.CategoryID)
}

// discard deletes a blob whose record never got written. The cleanup runs
// even if ctx was canceled.
func (s *DocumentService) discard(ctx context.Context, fileID string, cause error) error {
	if err := s.attachments.Delete(context.WithoutCancel(ctx), fileID); err != nil {
		s.log.Error("attachment_orphaned", zap.String("file_id", fileID), zap.Error(err))
		return errors.Join(cause, fmt.Errorf("discard attachment %s: %w", fileID, err))
	}
	s.log.Warn("attachment_discarded", zap.String("file_id", fileID), zap.Error(cause))
	return cause
}

// release drops a blob no record references any more, when the policy asks
// for it. The record write already succeeded, so failures are only logged.
func (s *DocumentService) release(ctx context.Context, fileID string) {
	if !s.policy.PurgeReplaced {
		return
	}
	if err := s.attachments.Delete(ctx, fileID); err != nil {
		s.log.Error("attachment_purge_failed", zap.String("file_id", fileID), zap.Error(err))
	}
}

func merge(d *model.Document, p model.Patch) repository.DocumentUpdate {
	u := repository.DocumentUpdate{
		Title:          d.Title,
		CategoryID:     d.CategoryID,
		Store:          d.Store,
		ExpirationDate: d.ExpirationDate,
		Notes:          d.Notes,
	}
	if p.Title != nil {
		u.Title = strings.TrimSpace(*p.Title)
	}
	if p.CategoryID != nil {
		u.CategoryID = *p.CategoryID
	}
	if p.Store != nil {
		u.Store = *p.Store
	}
	if p.Notes != nil {
		u.Notes = *p.Notes
	}
	switch {
	case p.ClearExpiration:
		u.ExpirationDate = nil
	case p.ExpirationDate != nil:
		u.ExpirationDate = p.ExpirationDate
	}
	return u
}
