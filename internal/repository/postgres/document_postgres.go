package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
	"dokubox/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, owner_id, title, category_id, store,
		COALESCE(upload_date, created_at), expiration_date, notes,
		image_url, image_file_id, revision, created_at, updated_at`

var sortColumns = map[model.SortField]string{
	model.SortByUploadDate:     "COALESCE(upload_date, created_at)",
	model.SortByTitle:          "lower(title)",
	model.SortByExpirationDate: "expiration_date",
}

// orderClause builds ORDER BY from whitelisted parts only. Rows without a
// value for the sort column come last in both directions, and creation order
// breaks ties.
func orderClause(by model.SortField, order model.SortOrder) string {
	col, ok := sortColumns[by]
	if !ok {
		col = sortColumns[model.SortByUploadDate]
	}
	dir := "DESC"
	if order == model.Ascending {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, created_at ASC, id ASC", col, dir)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d       model.Document
		expires sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.CategoryID,
		&d.Store,
		&d.UploadDate,
		&expires,
		&d.Notes,
		&d.ImageURL,
		&d.ImageFileID,
		&d.Revision,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		d.ExpirationDate = &t
	}
	return &d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, owner_id, title, category_id, store, upload_date,
			expiration_date, notes, image_url, image_file_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + documentColumns

	uploadDate := nullTime(&doc.UploadDate)
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.CategoryID,
		doc.Store,
		uploadDate,
		nullTime(doc.ExpirationDate),
		doc.Notes,
		doc.ImageURL,
		doc.ImageFileID,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, apperr.Network("create document", err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}

	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.Network("find document", err)
	}
	return d, nil
}

// List returns the documents of one owner in the requested order.
func (r *DocumentPostgres) List(ctx context.Context, lq repository.ListQuery) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		` + orderClause(lq.SortBy, lq.SortOrder)

	rows, err := r.db.QueryContext(ctx, q, lq.OwnerID)
	if err != nil {
		return nil, apperr.Network("list documents", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Network("list documents", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Network("list documents", err)
	}
	return items, nil
}

// Update writes the given fields and bumps the revision.
func (r *DocumentPostgres) Update(ctx context.Context, id string, u repository.DocumentUpdate) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}

	sets := []string{
		"title = $1",
		"category_id = $2",
		"store = $3",
		"expiration_date = $4",
		"notes = $5",
	}
	args := []any{u.Title, u.CategoryID, u.Store, nullTime(u.ExpirationDate), u.Notes}
	if u.Image != nil {
		sets = append(sets, "image_url = $6", "image_file_id = $7")
		args = append(args, u.Image.URL, u.Image.FileID)
	}
	args = append(args, id)

	q := fmt.Sprintf(`
		UPDATE documents
		SET %s, revision = revision + 1, updated_at = now()
		WHERE id = $%d
		RETURNING `+documentColumns, strings.Join(sets, ", "), len(args))

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.Network("update document", err)
	}
	return d, nil
}

// Delete removes a document by ID.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}

	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return apperr.Network("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Network("delete document", err)
	}
	if n == 0 {
		return fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}
