package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"dokubox/internal/apperr"
	"dokubox/internal/model"
	"dokubox/internal/repository"
	"dokubox/internal/token"
)

const (
	minPasswordLength = 8
	uniqueViolation   = "23505"
)

// AccountPolicy controls session lifetime and brute-force lockout.
type AccountPolicy struct {
	SessionTTL        time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	BcryptCost        int
}

func (p AccountPolicy) withDefaults() AccountPolicy {
	if p.SessionTTL <= 0 {
		p.SessionTTL = 30 * 24 * time.Hour
	}
	if p.MaxFailedAttempts <= 0 {
		p.MaxFailedAttempts = 5
	}
	if p.LockoutDuration <= 0 {
		p.LockoutDuration = time.Minute
	}
	if p.BcryptCost == 0 {
		p.BcryptCost = bcrypt.DefaultCost
	}
	return p
}

// AccountPostgres is the auth backend: accounts with bcrypt password hashes
// and revocable sessions handed out as signed tokens.
type AccountPostgres struct {
	db     *sql.DB
	tokens *token.Issuer
	policy AccountPolicy
	now    func() time.Time
}

// NewAccountPostgres creates a new AccountPostgres repository.
func NewAccountPostgres(db *sql.DB, tokens *token.Issuer, policy AccountPolicy) *AccountPostgres {
	return &AccountPostgres{
		db:     db,
		tokens: tokens,
		policy: policy.withDefaults(),
		now:    time.Now,
	}
}

var _ repository.AccountRepository = (*AccountPostgres)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

// CreateIdentity inserts a new account.
func (r *AccountPostgres) CreateIdentity(ctx context.Context, name, email, password string) (model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return model.User{}, apperr.Invalid("email", "is required")
	}
	if err := validatePassword(password); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.policy.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	const q = `
		INSERT INTO accounts (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, created_at
	`
	var u model.User
	err = r.db.QueryRowContext(ctx, q, uuid.NewString(), name, email, string(hash)).
		Scan(&u.ID, &u.Name, &u.Email, &u.RegistrationDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, apperr.Invalid("email", "is already registered")
		}
		return model.User{}, apperr.Network("create identity", err)
	}
	return u, nil
}

// CreateSession verifies credentials and opens a new session. A live
// session token in current for the same account yields
// apperr.ErrSessionConflict once the password has been accepted.
func (r *AccountPostgres) CreateSession(ctx context.Context, current, email, password string) (model.Session, error) {
	email = normalizeEmail(email)
	now := r.now()

	const qAccount = `
		SELECT id, password_hash, failed_login_attempts, locked_until
		FROM accounts
		WHERE email = $1
	`
	var (
		accountID   string
		hash        string
		failed      int
		lockedUntil sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, qAccount, email).Scan(&accountID, &hash, &failed, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, apperr.ErrAuthentication
		}
		return model.Session{}, apperr.Network("find account", err)
	}

	if lockedUntil.Valid && lockedUntil.Time.After(now) {
		return model.Session{}, apperr.ErrRateLimited
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return model.Session{}, r.recordFailure(ctx, accountID, failed+1, now)
	}

	// Credentials are checked first so a held session never vouches for a
	// wrong password.
	if current != "" {
		active, err := r.sessionEmail(ctx, current, now)
		if err != nil {
			return model.Session{}, err
		}
		if active == email {
			return model.Session{}, apperr.ErrSessionConflict
		}
	}

	if failed > 0 || lockedUntil.Valid {
		const qReset = `UPDATE accounts SET failed_login_attempts = 0, locked_until = NULL WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, qReset, accountID); err != nil {
			return model.Session{}, apperr.Network("reset login attempts", err)
		}
	}

	sess := model.Session{
		UserID:    accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.policy.SessionTTL),
	}
	sessionID := uuid.NewString()

	const qSession = `
		INSERT INTO sessions (id, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, qSession, sessionID, accountID, sess.CreatedAt, sess.ExpiresAt); err != nil {
		return model.Session{}, apperr.Network("create session", err)
	}

	sess.Token, err = r.tokens.Generate(accountID, sessionID, sess.ExpiresAt)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return sess, nil
}

// recordFailure counts a bad password and locks the account once the limit
// is reached. The returned error is what the caller surfaces.
func (r *AccountPostgres) recordFailure(ctx context.Context, accountID string, attempts int, now time.Time) error {
	const q = `UPDATE accounts SET failed_login_attempts = $1, locked_until = $2 WHERE id = $3`

	if attempts >= r.policy.MaxFailedAttempts {
		until := now.Add(r.policy.LockoutDuration)
		if _, err := r.db.ExecContext(ctx, q, 0, until, accountID); err != nil {
			return apperr.Network("lock account", err)
		}
		return apperr.ErrRateLimited
	}

	if _, err := r.db.ExecContext(ctx, q, attempts, nil, accountID); err != nil {
		return apperr.Network("record failed login", err)
	}
	return apperr.ErrAuthentication
}

// sessionEmail returns the email behind a live session token, or "" when the
// token does not resolve to one.
func (r *AccountPostgres) sessionEmail(ctx context.Context, raw string, now time.Time) (string, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return "", nil
	}

	const q = `
		SELECT a.email
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.id = $1 AND s.account_id = $2 AND s.revoked_at IS NULL AND s.expires_at > $3
	`
	var email string
	err = r.db.QueryRowContext(ctx, q, claims.SessionID, claims.Subject, now).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", apperr.Network("find session", err)
	}
	return email, nil
}

// CurrentIdentity resolves the account behind a live session token.
func (r *AccountPostgres) CurrentIdentity(ctx context.Context, raw string) (model.User, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return model.User{}, apperr.ErrUnauthenticated
	}

	const q = `
		SELECT a.id, a.name, a.email, a.created_at
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.id = $1 AND s.account_id = $2 AND s.revoked_at IS NULL AND s.expires_at > $3
	`
	var u model.User
	err = r.db.QueryRowContext(ctx, q, claims.SessionID, claims.Subject, r.now()).
		Scan(&u.ID, &u.Name, &u.Email, &u.RegistrationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.ErrUnauthenticated
		}
		return model.User{}, apperr.Network("current identity", err)
	}
	return u, nil
}

func (r *AccountPostgres) UpdateName(ctx context.Context, raw, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, apperr.Invalid("name", "is required")
	}

	u, err := r.CurrentIdentity(ctx, raw)
	if err != nil {
		return model.User{}, err
	}

	const q = `UPDATE accounts SET name = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, q, name, u.ID); err != nil {
		return model.User{}, apperr.Network("update name", err)
	}
	u.Name = name
	return u, nil
}

func (r *AccountPostgres) UpdatePassword(ctx context.Context, raw, password, oldPassword string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	u, err := r.CurrentIdentity(ctx, raw)
	if err != nil {
		return err
	}

	var hash string
	const qHash = `SELECT password_hash FROM accounts WHERE id = $1`
	if err := r.db.QueryRowContext(ctx, qHash, u.ID).Scan(&hash); err != nil {
		return apperr.Network("find account", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return apperr.ErrAuthentication
	}

	next, err := bcrypt.GenerateFromPassword([]byte(password), r.policy.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	const q = `UPDATE accounts SET password_hash = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, q, string(next), u.ID); err != nil {
		return apperr.Network("update password", err)
	}
	return nil
}

// DeleteSession revokes the session behind raw.
func (r *AccountPostgres) DeleteSession(ctx context.Context, raw string) error {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return apperr.ErrUnauthenticated
	}

	const q = `UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, r.now(), claims.SessionID)
	if err != nil {
		return apperr.Network("delete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Network("delete session", err)
	}
	if n == 0 {
		return apperr.ErrUnauthenticated
	}
	return nil
}
