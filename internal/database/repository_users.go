package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	user.ID = uuid.NewString()

	query := `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return storageErr("failed to create user", err)
	}

	return nil
}

// GetUserByID retrieves a user by id; nil when not found
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	return r.getUser(ctx, "id", userID)
}

// GetUserByEmail retrieves a user by email; nil when not found
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *Repository) getUser(ctx context.Context, column, value string) (*User, error) {
	query := `
		SELECT id, email, password_hash, COALESCE(name, ''),
			created_at, updated_at, last_login_at
		FROM users WHERE ` + column + ` = $1
	`

	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, value).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("failed to get user", err)
	}

	return user, nil
}

// EmailExists reports whether a user with the email is already registered
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, storageErr("failed to check email", err)
	}
	return exists, nil
}

// UpdateLastLogin stamps the user's last login time
func (r *Repository) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return storageErr("failed to update last login", err)
	}
	return nil
}

// UpdatePassword replaces the user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return storageErr("failed to update password", err)
	}
	return nil
}

// CreateSession stores a refresh-token session
func (r *Repository) CreateSession(ctx context.Context, session *Session) error {
	session.ID = uuid.NewString()

	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		session.ID, session.UserID, session.RefreshTokenHash, session.ExpiresAt,
	).Scan(&session.CreatedAt)

	if err != nil {
		return storageErr("failed to create session", err)
	}

	return nil
}

// GetSessionByTokenHash retrieves a live session by refresh-token hash;
// nil when absent, revoked, or expired.
func (r *Repository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, expires_at, revoked, created_at
		FROM sessions
		WHERE refresh_token_hash = $1 AND NOT revoked AND expires_at > now()
	`

	session := &Session{}
	err := r.db.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.RefreshTokenHash,
		&session.ExpiresAt, &session.Revoked, &session.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("failed to get session", err)
	}

	return session, nil
}

// RevokeSession marks one session revoked
func (r *Repository) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sessions SET revoked = TRUE WHERE id = $1`, sessionID)
	if err != nil {
		return storageErr("failed to revoke session", err)
	}
	return nil
}

// RevokeUserSessions revokes every session the user holds
func (r *Repository) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sessions SET revoked = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return storageErr("failed to revoke user sessions", err)
	}
	return nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (r *Repository) CleanupExpiredSessions(ctx context.Context, olderThan time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, olderThan)
	if err != nil {
		return storageErr("failed to cleanup sessions", err)
	}
	return nil
}
