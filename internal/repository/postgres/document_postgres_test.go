package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
	"dokubox/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	docID   = "0f8fad5b-d9cb-469f-a165-70867728950e"
	ownerID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

var docCols = []string{
	"id", "owner_id", "title", "category_id", "store", "upload_date", "expiration_date",
	"notes", "image_url", "image_file_id", "revision", "created_at", "updated_at",
}

func docRow(rows *sqlmock.Rows, id, title string, expires driver.Value) *sqlmock.Rows {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return rows.AddRow(id, ownerID, title, "appliances", "Store", now, expires, "", "", "", 1, now, now)
}

func newMock(t *testing.T) (*DocumentPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentPostgres(db), mock
}

func TestDocumentPostgres_Create(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	expires := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := &model.Document{
		ID:             docID,
		OwnerID:        ownerID,
		Title:          "Fridge warranty",
		CategoryID:     "appliances",
		ExpirationDate: &expires,
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(docID, ownerID, "Fridge warranty", "appliances", "", nil, sqlmock.AnyArg(), "", "", "").
		WillReturnRows(docRow(sqlmock.NewRows(docCols), docID, "Fridge warranty", expires))

	result, err := repo.Create(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, docID, result.ID)
	require.NotNil(t, result.ExpirationDate)
	assert.True(t, expires.Equal(*result.ExpirationDate))
	assert.False(t, result.UploadDate.IsZero(), "upload date falls back to creation time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Create_Error(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO documents").WillReturnError(errors.New("conn reset"))

	_, err := repo.Create(context.Background(), &model.Document{ID: docID})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(docID).
			WillReturnRows(docRow(sqlmock.NewRows(docCols), docID, "Receipt", nil))

		doc, err := repo.FindByID(ctx, docID)

		require.NoError(t, err)
		assert.Equal(t, docID, doc.ID)
		assert.Nil(t, doc.ExpirationDate)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(docID).
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, docID)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Nil(t, doc)
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(docID).
			WillReturnError(errors.New("conn reset"))

		_, err := repo.FindByID(ctx, docID)
		assert.ErrorIs(t, err, apperr.ErrNetwork)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	tests := []struct {
		name  string
		query repository.ListQuery
		order string
	}{
		{
			name:  "upload date descending",
			query: repository.ListQuery{OwnerID: ownerID, SortBy: model.SortByUploadDate, SortOrder: model.Descending},
			order: `ORDER BY COALESCE\(upload_date, created_at\) DESC NULLS LAST, created_at ASC, id ASC`,
		},
		{
			name:  "title ascending",
			query: repository.ListQuery{OwnerID: ownerID, SortBy: model.SortByTitle, SortOrder: model.Ascending},
			order: `ORDER BY lower\(title\) ASC NULLS LAST, created_at ASC, id ASC`,
		},
		{
			name:  "expiration ascending keeps missing dates last",
			query: repository.ListQuery{OwnerID: ownerID, SortBy: model.SortByExpirationDate, SortOrder: model.Ascending},
			order: `ORDER BY expiration_date ASC NULLS LAST, created_at ASC, id ASC`,
		},
		{
			name:  "unknown field falls back to upload date",
			query: repository.ListQuery{OwnerID: ownerID, SortBy: "owner_id; DROP TABLE documents", SortOrder: "sideways"},
			order: `ORDER BY COALESCE\(upload_date, created_at\) DESC NULLS LAST`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)

			rows := sqlmock.NewRows(docCols)
			docRow(rows, docID, "A", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
			docRow(rows, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "B", nil)

			mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id = \\$1 " + tt.order).
				WithArgs(ownerID).
				WillReturnRows(rows)

			items, err := repo.List(context.Background(), tt.query)

			require.NoError(t, err)
			assert.Len(t, items, 2)
			assert.NotNil(t, items[0].ExpirationDate)
			assert.Nil(t, items[1].ExpirationDate)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentPostgres_List_Error(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").WillReturnError(errors.New("timeout"))

	_, err := repo.List(context.Background(), repository.ListQuery{OwnerID: ownerID})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestDocumentPostgres_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("scalar fields only", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectQuery(`UPDATE documents SET title = \$1, category_id = \$2, store = \$3, expiration_date = \$4, notes = \$5, revision = revision \+ 1, updated_at = now\(\) WHERE id = \$6`).
			WithArgs("New title", "appliances", "Store", nil, "", docID).
			WillReturnRows(docRow(sqlmock.NewRows(docCols), docID, "New title", nil))

		doc, err := repo.Update(ctx, docID, repository.DocumentUpdate{
			Title:      "New title",
			CategoryID: "appliances",
			Store:      "Store",
		})

		require.NoError(t, err)
		assert.Equal(t, "New title", doc.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with attachment pair", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectQuery(`SET (.+), image_url = \$6, image_file_id = \$7, revision = revision \+ 1(.+)WHERE id = \$8`).
			WithArgs("T", "", "", nil, "", "http://x/view", "file-1", docID).
			WillReturnRows(docRow(sqlmock.NewRows(docCols), docID, "T", nil))

		_, err := repo.Update(ctx, docID, repository.DocumentUpdate{
			Title: "T",
			Image: &repository.AttachmentRef{URL: "http://x/view", FileID: "file-1"},
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, docID, repository.DocumentUpdate{Title: "T"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs(docID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, docID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs(docID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, docID), apperr.ErrNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec("DELETE FROM documents").WillReturnError(errors.New("conn reset"))

		assert.ErrorIs(t, repo.Delete(ctx, docID), apperr.ErrNetwork)
	})
}
