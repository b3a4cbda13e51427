// Package session owns the signed-in state of one client: creating, resuming
// and destroying the session against the auth backend.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
	"dokubox/internal/repository"
)

// Manager holds at most one session. It never persists the token; callers
// store it and hand it back through Resume.
type Manager struct {
	accounts repository.AccountRepository
	retry    RetryPolicy
	log      *zap.Logger

	mu      sync.Mutex
	current *model.Session
	user    *model.User
}

func New(accounts repository.AccountRepository, retry RetryPolicy, log *zap.Logger) *Manager {
	return &Manager{accounts: accounts, retry: retry, log: log}
}

// Login signs in. A rate-limited attempt is retried once after the backoff,
// and the retried call's result is final. A conflict with the session this
// manager already holds counts as success and returns that session.
func (m *Manager) Login(ctx context.Context, email, password string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signIn(ctx, email, password)
}

// Register creates the identity and then signs in exactly like Login.
func (m *Manager) Register(ctx context.Context, name, email, password string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.accounts.CreateIdentity(ctx, name, email, password)
	if err != nil {
		return model.Session{}, err
	}
	m.log.Info("identity_created", zap.String("user_id", u.ID))
	return m.signIn(ctx, email, password)
}

func (m *Manager) signIn(ctx context.Context, email, password string) (model.Session, error) {
	held := ""
	if m.current != nil {
		held = m.current.Token
	}

	sess, err := m.accounts.CreateSession(ctx, held, email, password)
	if errors.Is(err, apperr.ErrRateLimited) {
		m.log.Warn("login_rate_limited", zap.Duration("retry_in", m.retry.Backoff))
		if werr := m.retry.wait(ctx); werr != nil {
			return model.Session{}, werr
		}
		sess, err = m.accounts.CreateSession(ctx, held, email, password)
	}

	if errors.Is(err, apperr.ErrSessionConflict) && m.current != nil {
		m.log.Info("session_already_active", zap.String("user_id", m.current.UserID))
		return *m.current, nil
	}
	if err != nil {
		return model.Session{}, err
	}

	m.current = &sess
	m.user = nil
	m.log.Info("session_created", zap.String("user_id", sess.UserID))
	return sess, nil
}

// Resume binds a token persisted by an earlier run. It fails with
// apperr.ErrUnauthenticated when the token no longer resolves; the returned
// session carries only the token and user id.
func (m *Manager) Resume(ctx context.Context, token string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return model.Session{}, apperr.ErrUnauthenticated
	}
	u, err := m.accounts.CurrentIdentity(ctx, token)
	if err != nil {
		return model.Session{}, err
	}
	m.current = &model.Session{Token: token, UserID: u.ID}
	m.user = &u
	return *m.current, nil
}

// CurrentUser returns the signed-in identity.
func (m *Manager) CurrentUser(ctx context.Context) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return model.User{}, apperr.ErrUnauthenticated
	}
	if m.user != nil {
		return *m.user, nil
	}
	u, err := m.accounts.CurrentIdentity(ctx, m.current.Token)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			m.current = nil
		}
		return model.User{}, err
	}
	m.user = &u
	return u, nil
}

func (m *Manager) UpdateName(ctx context.Context, name string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return model.User{}, apperr.ErrUnauthenticated
	}
	u, err := m.accounts.UpdateName(ctx, m.current.Token, name)
	if err != nil {
		return model.User{}, err
	}
	m.user = &u
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return apperr.ErrUnauthenticated
	}
	if err := m.accounts.UpdatePassword(ctx, m.current.Token, next, current); err != nil {
		return err
	}
	m.log.Info("password_changed", zap.String("user_id", m.current.UserID))
	return nil
}

// Logout revokes the remote session and forgets it locally, even when the
// remote call fails. Clearing a persisted token is the caller's job.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return apperr.ErrUnauthenticated
	}
	token, userID := m.current.Token, m.current.UserID
	m.current, m.user = nil, nil

	if err := m.accounts.DeleteSession(ctx, token); err != nil {
		return err
	}
	m.log.Info("session_deleted", zap.String("user_id", userID))
	return nil
}

// Token returns the held session token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}
