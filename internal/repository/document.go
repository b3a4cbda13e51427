package repository

import (
	"context"
	"time"

	"dokubox/internal/model"
)

// DocumentRepository is the remote document collection. It enforces no
// ownership and holds no business rules; FindByID, Update and Delete report
// apperr.ErrNotFound for unknown ids.
type DocumentRepository interface {
	// Create inserts a record. A zero UploadDate is stored as absent and read
	// back as the creation timestamp.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns the owner's documents in the requested order, with creation
	// order as the tie-break.
	List(ctx context.Context, q ListQuery) ([]model.Document, error)

	// Update writes the scalar fields of u and, when u.Image is set, the
	// attachment pair. The revision is incremented.
	Update(ctx context.Context, id string, u DocumentUpdate) (*model.Document, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error
}

// ListQuery selects documents by owner and ordering.
type ListQuery struct {
	OwnerID   string
	SortBy    model.SortField
	SortOrder model.SortOrder
}

// DocumentUpdate is the field set written by Update.
type DocumentUpdate struct {
	Title          string
	CategoryID     string
	Store          string
	ExpirationDate *time.Time
	Notes          string
	// Image is nil to leave the attachment untouched. A zero AttachmentRef
	// clears it.
	Image *AttachmentRef
}

// AttachmentRef is the (url, file id) pair stored on a document.
type AttachmentRef struct {
	URL    string
	FileID string
}
