package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence surface the authenticator depends on. The
// Postgres-backed Repository implements it; tests substitute an in-memory
// fake.
type Store interface {
	FindUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindActiveDeviceSession(ctx context.Context, userID, deviceID string, now time.Time) (DeviceSession, error)
	FindActiveDeviceSessionByRefreshToken(ctx context.Context, userID, refreshToken string, now time.Time) (DeviceSession, error)
	TouchDeviceSession(ctx context.Context, id string, now time.Time) error
	ReplaceDeviceSession(ctx context.Context, session DeviceSession) error
	DeleteDeviceSession(ctx context.Context, userID, refreshToken string) (bool, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role,
	is_email_verified, COALESCE(profile_photo, ''), COALESCE(phone, ''),
	is_active, created_at, updated_at`

func (r *Repository) FindUser(ctx context.Context, id string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
}

func (r *Repository) scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.IsEmailVerified, &user.ProfilePhoto, &user.Phone,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

func (r *Repository) FindActiveDeviceSession(ctx context.Context, userID, deviceID string, now time.Time) (DeviceSession, error) {
	session, err := r.scanSession(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, device_id, refresh_token, expires_at, last_activity_at, created_at
		FROM device_sessions
		WHERE user_id = $1 AND device_id = $2 AND expires_at > $3
	`, userID, deviceID, now.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DeviceSession{}, ErrSessionInvalid
		}
		return DeviceSession{}, err
	}

	return session, nil
}

func (r *Repository) FindActiveDeviceSessionByRefreshToken(ctx context.Context, userID, refreshToken string, now time.Time) (DeviceSession, error) {
	session, err := r.scanSession(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, device_id, refresh_token, expires_at, last_activity_at, created_at
		FROM device_sessions
		WHERE user_id = $1 AND refresh_token = $2 AND expires_at > $3
	`, userID, refreshToken, now.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DeviceSession{}, ErrInvalidRefreshToken
		}
		return DeviceSession{}, err
	}

	return session, nil
}

func (r *Repository) scanSession(row *sql.Row) (DeviceSession, error) {
	var session DeviceSession
	err := row.Scan(
		&session.ID, &session.UserID, &session.DeviceID, &session.RefreshToken,
		&session.ExpiresAt, &session.LastActivityAt, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DeviceSession{}, err
		}
		return DeviceSession{}, fmt.Errorf("query device session: %w", err)
	}

	return session, nil
}

func (r *Repository) TouchDeviceSession(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE device_sessions
		SET last_activity_at = $2
		WHERE id = $1
	`, id, now.UTC())
	if err != nil {
		return fmt.Errorf("touch device session: %w", err)
	}

	return nil
}

// ReplaceDeviceSession installs the session as the single live one for its
// (user, device) pair, superseding any previous session for that device.
func (r *Repository) ReplaceDeviceSession(ctx context.Context, session DeviceSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_sessions (id, user_id, device_id, refresh_token, expires_at, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			last_activity_at = EXCLUDED.last_activity_at,
			created_at = EXCLUDED.created_at
	`, session.ID, session.UserID, session.DeviceID, session.RefreshToken,
		session.ExpiresAt.UTC(), session.LastActivityAt.UTC(), session.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("replace device session: %w", err)
	}

	return nil
}

func (r *Repository) DeleteDeviceSession(ctx context.Context, userID, refreshToken string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM device_sessions
		WHERE user_id = $1 AND refresh_token = $2
	`, userID, refreshToken)
	if err != nil {
		return false, fmt.Errorf("delete device session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete device session rows affected: %w", err)
	}

	return affected > 0, nil
}

// UpsertAdminUser seeds (or resets) the bootstrap admin account. Used only at
// startup when ADMIN_EMAIL/ADMIN_PASSWORD are configured.
func (r *Repository) UpsertAdminUser(ctx context.Context, email, plainPassword string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role,
			is_email_verified, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 'Platform', 'Admin', $4, TRUE, TRUE, $5, $5)
		ON CONFLICT (email)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
	`, id.String(), email, string(hash), RoleAdmin, now)
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}

	return nil
}

// CleanupExpiredSessions batch-deletes sessions that expired before the
// retention cutoff. Returns the number of rows removed.
func (r *Repository) CleanupExpiredSessions(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retention <= 0 {
		retention = 14 * 24 * time.Hour
	}

	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM device_sessions
			WHERE expires_at < $1
			ORDER BY expires_at ASC
			LIMIT $2
		)
		DELETE FROM device_sessions t
		USING stale
		WHERE t.id = stale.id
	`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired device sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired device sessions rows affected: %w", err)
	}

	return affected, nil
}
