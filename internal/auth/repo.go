package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simtunkin/simtunkin/internal/shared"
)

// Repository defines the persistence operations authentication needs.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	SetRefreshTokenHash(ctx context.Context, userID int64, hash []byte) error
	FindRefreshTokenHash(ctx context.Context, userID int64) ([]byte, error)
	ClearRefreshToken(ctx context.Context, userID int64) error
	SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error
	FindByResetToken(ctx context.Context, token string) (*User, error)
	SetPassword(ctx context.Context, userID int64, passwordHash string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, role, must_reset_password, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.MustResetPassword, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindByID fetches a user account by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// SetRefreshTokenHash stores the hash of the active refresh token.
func (r *PGRepository) SetRefreshTokenHash(ctx context.Context, userID int64, hash []byte) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`, userID, hash)
	return err
}

// FindRefreshTokenHash returns the stored refresh token hash, nil when
// no refresh token is active.
func (r *PGRepository) FindRefreshTokenHash(ctx context.Context, userID int64) ([]byte, error) {
	var hash []byte
	err := r.pool.QueryRow(ctx, `SELECT refresh_token_hash FROM users WHERE id = $1`, userID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrInvalidCredentials
	}
	return hash, err
}

// ClearRefreshToken revokes the active refresh token.
func (r *PGRepository) ClearRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = NULL, updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// SetResetToken stores a password reset token with its expiry.
func (r *PGRepository) SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW() WHERE id = $1`, userID, token, expiry)
	return err
}

// FindByResetToken fetches the account holding an unexpired reset token.
func (r *PGRepository) FindByResetToken(ctx context.Context, token string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_token_expiry > NOW()`, token)
	user, err := scanUser(row)
	if errors.Is(err, shared.ErrInvalidCredentials) {
		return nil, shared.ErrResetTokenInvalid
	}
	return user, err
}

// SetPassword replaces the password hash and clears reset bookkeeping.
func (r *PGRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, must_reset_password = FALSE, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
	return err
}
