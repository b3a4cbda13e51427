package repository

import (
	"context"

	"dokubox/internal/model"
)

// AccountRepository is the auth backend: identities and their sessions.
type AccountRepository interface {
	// CreateIdentity registers a new account.
	CreateIdentity(ctx context.Context, name, email, password string) (model.User, error)

	// CreateSession signs in with email and password. current is the token the
	// caller already holds, if any; when it is still valid for the same
	// identity, apperr.ErrSessionConflict is returned. Repeated bad passwords
	// lock the account and surface apperr.ErrRateLimited.
	CreateSession(ctx context.Context, current, email, password string) (model.Session, error)

	// CurrentIdentity resolves the account behind token.
	CurrentIdentity(ctx context.Context, token string) (model.User, error)

	UpdateName(ctx context.Context, token, name string) (model.User, error)

	// UpdatePassword replaces the password after verifying oldPassword.
	UpdatePassword(ctx context.Context, token, password, oldPassword string) error

	// DeleteSession revokes the session behind token.
	DeleteSession(ctx context.Context, token string) error
}
