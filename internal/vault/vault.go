// Package vault assembles the client-side core: the session, the owner-scoped
// document service and the category list, bundled in one Client that is built
// once and passed by reference.
package vault

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/category"
	"dokubox/internal/kv"
	"dokubox/internal/model"
	"dokubox/internal/query"
	"dokubox/internal/repository"
	"dokubox/internal/service"
	"dokubox/internal/session"
)

// API is what presentation code calls.
type API interface {
	Login(ctx context.Context, email, password string) (model.Session, error)
	Register(ctx context.Context, name, email, password string) (model.Session, error)
	CurrentUser(ctx context.Context) (model.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	UpdateName(ctx context.Context, name string) (model.User, error)
	SignOut(ctx context.Context) error

	ListForCurrentUser(ctx context.Context, sortBy model.SortField, order model.SortOrder) ([]model.Document, error)
	GetByID(ctx context.Context, id string) (*model.Document, error)
	Create(ctx context.Context, draft model.Draft) (*model.Document, error)
	Update(ctx context.Context, id string, patch model.Patch) (*model.Document, error)
	Delete(ctx context.Context, id string) error

	ListCategories() []model.Category
	Filter(docs []model.Document, p query.Predicate) []model.Document
}

// Deps are the collaborators a Client is built from.
type Deps struct {
	Accounts    repository.AccountRepository
	Documents   repository.DocumentRepository
	Attachments service.Attachments
	Categories  category.Provider
	// Tokens keeps the session token between runs.
	Tokens kv.Store
	Retry  session.RetryPolicy
	Blobs  service.BlobPolicy
	Log    *zap.Logger
}

// Client implements API.
type Client struct {
	sessions   *session.Manager
	documents  *service.DocumentService
	categories category.Provider
	tokens     kv.Store
	log        *zap.Logger
}

var _ API = (*Client)(nil)

func New(d Deps) *Client {
	sessions := session.New(d.Accounts, d.Retry, d.Log)
	return &Client{
		sessions:   sessions,
		documents:  service.NewDocumentService(d.Documents, sessions, d.Attachments, d.Categories, d.Blobs, d.Log),
		categories: d.Categories,
		tokens:     d.Tokens,
		log:        d.Log,
	}
}

// Open builds a short-lived client around token, as an API server does for
// each request. An empty token yields a signed-out client.
func Open(ctx context.Context, d Deps, token string) (*Client, error) {
	d.Tokens = kv.NewMemory()
	c := New(d)
	if token == "" {
		return c, nil
	}
	if _, err := c.sessions.Resume(ctx, token); err != nil {
		return nil, err
	}
	return c, nil
}

// Restore resumes the session whose token was stored by an earlier run. It
// reports whether a session is now active; a stale token is removed.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	token, ok, err := c.tokens.Get(ctx, kv.TokenKey)
	if err != nil {
		return false, fmt.Errorf("read session token: %w", err)
	}
	if !ok || token == "" {
		return false, nil
	}

	_, err = c.sessions.Resume(ctx, token)
	if errors.Is(err, apperr.ErrUnauthenticated) {
		c.log.Info("stored_session_expired")
		if err := c.tokens.Remove(ctx, kv.TokenKey); err != nil {
			return false, fmt.Errorf("remove session token: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Token returns the active session token, or "".
func (c *Client) Token() string {
	return c.sessions.Token()
}

func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	sess, err := c.sessions.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	return sess, c.persist(ctx, sess)
}

func (c *Client) Register(ctx context.Context, name, email, password string) (model.Session, error) {
	sess, err := c.sessions.Register(ctx, name, email, password)
	if err != nil {
		return model.Session{}, err
	}
	return sess, c.persist(ctx, sess)
}

func (c *Client) persist(ctx context.Context, sess model.Session) error {
	if err := c.tokens.Set(ctx, kv.TokenKey, sess.Token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	return c.sessions.CurrentUser(ctx)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.sessions.ChangePassword(ctx, current, next)
}

func (c *Client) UpdateName(ctx context.Context, name string) (model.User, error) {
	return c.sessions.UpdateName(ctx, name)
}

// SignOut ends the session and forgets the stored token. A session the
// backend already dropped still counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.sessions.Logout(ctx)
	if rmErr := c.tokens.Remove(ctx, kv.TokenKey); rmErr != nil {
		return errors.Join(err, fmt.Errorf("remove session token: %w", rmErr))
	}
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return nil
	}
	return err
}

func (c *Client) ListForCurrentUser(ctx context.Context, sortBy model.SortField, order model.SortOrder) ([]model.Document, error) {
	return c.documents.ListForCurrentUser(ctx, sortBy, order)
}

func (c *Client) GetByID(ctx context.Context, id string) (*model.Document, error) {
	return c.documents.GetByID(ctx, id)
}

func (c *Client) Create(ctx context.Context, draft model.Draft) (*model.Document, error) {
	return c.documents.Create(ctx, draft)
}

func (c *Client) Update(ctx context.Context, id string, patch model.Patch) (*model.Document, error) {
	return c.documents.Update(ctx, id, patch)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.documents.Delete(ctx, id)
}

func (c *Client) ListCategories() []model.Category {
	return c.categories.ListAll()
}

func (c *Client) Filter(docs []model.Document, p query.Predicate) []model.Document {
	return query.Filter(docs, p)
}
