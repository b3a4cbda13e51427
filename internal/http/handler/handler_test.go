package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/http/middleware"
	"dokubox/internal/model"
	"dokubox/internal/query"
	"dokubox/internal/storage"
	storeMocks "dokubox/internal/storage/mocks"
	"dokubox/internal/vault"
	vaultMocks "dokubox/internal/vault/mocks"
)

const docID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestApp(client *vaultMocks.MockAPI, blobs storage.Storage) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop()), Immutable: true})
	app.Use(middleware.RequestID())

	open := func(_ context.Context, token string) (vault.API, error) {
		if token == "" || token == "good" {
			return client, nil
		}
		return nil, apperr.ErrUnauthenticated
	}
	RegisterRoutes(app, Deps{
		DB:             okPinger{},
		Open:           open,
		Blobs:          blobs,
		PresignExpiry:  time.Minute,
		MaxUploadBytes: 1 << 20,
	})
	return app
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer good")
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	name, value string
	file        []byte
}

func multipartRequest(t *testing.T, method, path string, parts ...part) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range parts {
		if p.file == nil {
			require.NoError(t, w.WriteField(p.name, p.value))
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.name+`"; filename="`+p.value+`"`)
		h.Set("Content-Type", "image/jpeg")
		fw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(p.file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return authed(req)
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *vaultMocks.MockAPI)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			body: `{"email":"ana@example.com","password":"secret123"}`,
			setupMocks: func(m *vaultMocks.MockAPI) {
				m.On("Login", mock.Anything, "ana@example.com", "secret123").
					Return(model.Session{Token: "tok", UserID: "u1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bad credentials",
			body: `{"email":"ana@example.com","password":"nope"}`,
			setupMocks: func(m *vaultMocks.MockAPI) {
				m.On("Login", mock.Anything, "ana@example.com", "nope").Return(model.Session{}, apperr.ErrAuthentication)
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTHENTICATION_ERROR",
		},
		{
			name: "still rate limited after retry",
			body: `{"email":"ana@example.com","password":"secret123"}`,
			setupMocks: func(m *vaultMocks.MockAPI) {
				m.On("Login", mock.Anything, "ana@example.com", "secret123").Return(model.Session{}, apperr.ErrRateLimited)
			},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			setupMocks: func(m *vaultMocks.MockAPI) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(vaultMocks.MockAPI)
			tt.setupMocks(client)
			app := newTestApp(client, nil)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/login", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				body := decodeError(t, resp)
				assert.Equal(t, tt.wantCode, body.Error.Code)
				assert.NotEmpty(t, body.RequestID)
				return
			}
			var sess sessionResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
			assert.Equal(t, "tok", sess.Token)
			assert.Nil(t, sess.ExpiresAt)
		})
	}
}

func TestRegister(t *testing.T) {
	client := new(vaultMocks.MockAPI)
	client.On("Register", mock.Anything, "Ana", "ana@example.com", "secret123").
		Return(model.Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	app := newTestApp(client, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Ana","email":"ana@example.com","password":"secret123"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var sess sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	assert.NotNil(t, sess.ExpiresAt)
}

func TestAccountRoutes(t *testing.T) {
	client := new(vaultMocks.MockAPI)
	client.On("CurrentUser", mock.Anything).Return(model.User{ID: "u1", Name: "Ana"}, nil)
	client.On("ChangePassword", mock.Anything, "old secret", "new secret").Return(nil)
	client.On("UpdateName", mock.Anything, "Ana Maria").Return(model.User{ID: "u1", Name: "Ana Maria"}, nil)
	client.On("SignOut", mock.Anything).Return(nil)
	app := newTestApp(client, nil)

	resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/auth/me", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(authed(jsonRequest(http.MethodPut, "/auth/password",
		`{"current_password":"old secret","new_password":"new secret"}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(authed(jsonRequest(http.MethodPut, "/auth/name", `{"name":"Ana Maria"}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(authed(httptest.NewRequest(http.MethodPost, "/auth/logout", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	client.AssertExpectations(t)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(new(vaultMocks.MockAPI), nil)

	for _, path := range []string{"/auth/me", "/documents", "/documents/" + docID, "/notifications"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer expired")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHENTICATED", decodeError(t, resp).Error.Code)
		})
	}
}

func TestListDocuments(t *testing.T) {
	docs := []model.Document{
		{ID: "1", Title: "Milk receipt"},
		{ID: "2", Title: "Sofa"},
	}

	t.Run("sorted and filtered", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("ListForCurrentUser", mock.Anything, model.SortByExpirationDate, model.Ascending).Return(docs, nil)
		client.On("Filter", docs, query.Predicate{Text: "milk", CategoryID: "documents"}).Return(docs[:1])
		app := newTestApp(client, nil)

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet,
			"/documents?sort=expirationDate&order=ASC&q=milk&category=documents", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body documentList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, "1", body.Items[0].ID)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("ListForCurrentUser", mock.Anything, model.SortField("size"), model.SortOrder("")).
			Return(nil, apperr.Invalid("sort", `unknown field "size"`))
		app := newTestApp(client, nil)

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents?sort=size", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, `sort: unknown field "size"`, decodeError(t, resp).Error.Message)
	})

	t.Run("backend down does not leak detail", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("ListForCurrentUser", mock.Anything, model.SortField(""), model.SortOrder("")).
			Return(nil, apperr.Network("list documents", errors.New("dial tcp 10.0.0.5:5432: refused")))
		app := newTestApp(client, nil)

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "NETWORK_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "10.0.0.5")
	})
}

func TestExpiringDocuments(t *testing.T) {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time { ts := time.Now().Add(d); return &ts }
	docs := []model.Document{
		{ID: "expired", ExpirationDate: at(-day)},
		{ID: "soon", ExpirationDate: at(3 * day)},
		{ID: "later", ExpirationDate: at(60 * day)},
		{ID: "never"},
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"default window", "", []string{"soon"}},
		{"wider window", "?days=90", []string{"soon", "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(vaultMocks.MockAPI)
			client.On("ListForCurrentUser", mock.Anything, model.SortByExpirationDate, model.Ascending).Return(docs, nil)
			app := newTestApp(client, nil)

			resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents/expiring"+tt.query, nil)))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body documentList
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			var got []string
			for _, d := range body.Items {
				got = append(got, d.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}

	for _, days := range []string{"-1", "soon", "36501", "200000"} {
		t.Run("bad days "+days, func(t *testing.T) {
			client := new(vaultMocks.MockAPI)
			app := newTestApp(client, nil)

			resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents/expiring?days="+days, nil)))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
			client.AssertNotCalled(t, "ListForCurrentUser", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("largest window still reaches later documents", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("ListForCurrentUser", mock.Anything, model.SortByExpirationDate, model.Ascending).Return(docs, nil)
		app := newTestApp(client, nil)

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents/expiring?days=36500", nil)))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body documentList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body.Items, 2)
	})
}

func TestGetDocument(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"found", nil, http.StatusOK, ""},
		{"someone else's", apperr.ErrAccessDenied, http.StatusForbidden, "ACCESS_DENIED"},
		{"missing", apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(vaultMocks.MockAPI)
			if tt.err != nil {
				client.On("GetByID", mock.Anything, docID).Return(nil, tt.err)
			} else {
				client.On("GetByID", mock.Anything, docID).Return(&model.Document{ID: docID}, nil)
			}
			app := newTestApp(client, nil)

			resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/documents/"+docID, nil)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
		})
	}
}

func TestCreateDocument(t *testing.T) {
	t.Run("with image", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("Create", mock.Anything, mock.MatchedBy(func(d model.Draft) bool {
			if d.Image == nil {
				return false
			}
			content, err := os.ReadFile(d.Image.URI)
			return err == nil &&
				string(content) == "jpegbytes" &&
				d.Image.Name == "receipt.jpg" &&
				d.Image.MimeType == "image/jpeg" &&
				d.Title == "Fridge warranty" &&
				d.CategoryID == "appliances" &&
				d.ExpirationDate != nil && d.ExpirationDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) &&
				d.UploadDate == nil
		})).Return(&model.Document{ID: docID}, nil)
		app := newTestApp(client, nil)

		resp, err := app.Test(multipartRequest(t, http.MethodPost, "/documents",
			part{name: "title", value: "Fridge warranty"},
			part{name: "category_id", value: "appliances"},
			part{name: "expiration_date", value: "2025-01-01"},
			part{name: "image", value: "receipt.jpg", file: []byte("jpegbytes")},
		))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		client.AssertExpectations(t)
	})

	t.Run("bad date", func(t *testing.T) {
		app := newTestApp(new(vaultMocks.MockAPI), nil)

		resp, err := app.Test(multipartRequest(t, http.MethodPost, "/documents",
			part{name: "title", value: "T"},
			part{name: "expiration_date", value: "next year"},
		))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
	})

	t.Run("upload failure", func(t *testing.T) {
		client := new(vaultMocks.MockAPI)
		client.On("Create", mock.Anything, mock.Anything).Return(nil, apperr.Upload("put blob", errors.New("reset")))
		app := newTestApp(client, nil)

		resp, err := app.Test(multipartRequest(t, http.MethodPost, "/documents",
			part{name: "title", value: "T"},
			part{name: "image", value: "a.jpg", file: []byte("x")},
		))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "UPLOAD_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestUpdateDocument(t *testing.T) {
	tests := []struct {
		name   string
		method string
		parts  []part
		check  func(t *testing.T, p model.Patch)
	}{
		{
			name:   "put replaces every scalar field",
			method: http.MethodPut,
			parts:  []part{{name: "title", value: "New"}},
			check: func(t *testing.T, p model.Patch) {
				require.NotNil(t, p.Title)
				assert.Equal(t, "New", *p.Title)
				require.NotNil(t, p.Store)
				assert.Empty(t, *p.Store)
				require.NotNil(t, p.Notes)
				assert.True(t, p.ClearExpiration)
				assert.False(t, p.ImageChanged)
			},
		},
		{
			name:   "patch touches only sent fields",
			method: http.MethodPatch,
			parts:  []part{{name: "title", value: "New"}},
			check: func(t *testing.T, p model.Patch) {
				assert.Equal(t, "New", *p.Title)
				assert.Nil(t, p.Store)
				assert.Nil(t, p.CategoryID)
				assert.Nil(t, p.Notes)
				assert.False(t, p.ClearExpiration)
				assert.Nil(t, p.ExpirationDate)
			},
		},
		{
			name:   "patch clears expiration when sent empty",
			method: http.MethodPatch,
			parts:  []part{{name: "expiration_date", value: ""}},
			check: func(t *testing.T, p model.Patch) {
				assert.True(t, p.ClearExpiration)
			},
		},
		{
			name:   "remove image",
			method: http.MethodPatch,
			parts:  []part{{name: "remove_image", value: "true"}},
			check: func(t *testing.T, p model.Patch) {
				assert.True(t, p.ImageChanged)
				assert.Nil(t, p.Image)
			},
		},
		{
			name:   "replace image",
			method: http.MethodPatch,
			parts:  []part{{name: "image", value: "new.jpg", file: []byte("x")}},
			check: func(t *testing.T, p model.Patch) {
				assert.True(t, p.ImageChanged)
				require.NotNil(t, p.Image)
				assert.Equal(t, "new.jpg", p.Image.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(vaultMocks.MockAPI)
			var got model.Patch
			client.On("Update", mock.Anything, docID, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(2).(model.Patch) }).
				Return(&model.Document{ID: docID}, nil)
			app := newTestApp(client, nil)

			resp, err := app.Test(multipartRequest(t, tt.method, "/documents/"+docID, tt.parts...))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			tt.check(t, got)
		})
	}
}

func TestDeleteDocument(t *testing.T) {
	client := new(vaultMocks.MockAPI)
	client.On("Delete", mock.Anything, docID).Return(nil).Once()
	client.On("Delete", mock.Anything, docID).Return(apperr.ErrNotFound).Once()
	app := newTestApp(client, nil)

	resp, err := app.Test(authed(httptest.NewRequest(http.MethodDelete, "/documents/"+docID, nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(authed(httptest.NewRequest(http.MethodDelete, "/documents/"+docID, nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategoriesAndNotifications(t *testing.T) {
	client := new(vaultMocks.MockAPI)
	client.On("ListCategories").Return([]model.Category{{ID: "appliances", Name: "Appliances"}})
	app := newTestApp(client, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.NoError(t, err)
	var cats []model.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	assert.Equal(t, "Appliances", cats[0].Name)

	resp, err = app.Test(authed(httptest.NewRequest(http.MethodGet, "/notifications", nil)))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"data":[]}`, string(b))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPatch, "/notifications/n-1/read", nil),
		httptest.NewRequest(http.MethodDelete, "/notifications/n-1", nil),
	} {
		resp, err := app.Test(authed(req))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, req.Method)

		resp, err = app.Test(httptest.NewRequest(req.Method, req.URL.Path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, req.Method)
	}
}

func TestViewFile(t *testing.T) {
	const path = "/storage/buckets/attachments/files/file-1/view?project=vault"

	t.Run("streams the blob", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		blobs.On("Bucket").Return("attachments")
		blobs.On("Get", mock.Anything, "file-1").
			Return(io.NopCloser(strings.NewReader("jpegbytes")), storage.ObjectInfo{Size: 9, ContentType: "image/jpeg"}, nil)
		app := newTestApp(new(vaultMocks.MockAPI), blobs)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "jpegbytes", string(b))
	})

	t.Run("other bucket", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		blobs.On("Bucket").Return("attachments")
		app := newTestApp(new(vaultMocks.MockAPI), blobs)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/storage/buckets/private/files/file-1/view", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		blobs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("missing blob", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		blobs.On("Bucket").Return("attachments")
		blobs.On("Get", mock.Anything, "file-1").Return(nil, storage.ObjectInfo{}, apperr.ErrNotFound)
		app := newTestApp(new(vaultMocks.MockAPI), blobs)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDownloadFile(t *testing.T) {
	blobs := new(storeMocks.MockStorage)
	blobs.On("Bucket").Return("attachments")
	blobs.On("PresignGet", mock.Anything, "file-1", time.Minute).Return("https://s3.example.com/signed", nil)
	app := newTestApp(new(vaultMocks.MockAPI), blobs)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/storage/buckets/attachments/files/file-1/download", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://s3.example.com/signed", resp.Header.Get("Location"))
}

func TestErrorHandler_FiberErrors(t *testing.T) {
	app := newTestApp(new(vaultMocks.MockAPI), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
}
