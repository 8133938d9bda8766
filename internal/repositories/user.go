package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
)

var (
	// ErrUniqueViolation is returned when a write collides with the username or email unique index.
	ErrUniqueViolation = errors.New("username or email already exists")
	// ErrUserNotFound is returned by writes that target a missing user.
	ErrUserNotFound = errors.New("user not found")
)

const uniqueViolationCode = "23505"

const userColumns = `id, username, email, fullname, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

const profileColumns = `id, username, email, fullname, avatar_url, cover_image_url, created_at, updated_at`

// PasswordHasher hashes raw passwords before they are persisted.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByUsernameOrEmail returns the user matching either field, or nil when none does.
// An empty argument is treated as not given.
func (r *UserReadRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.UserDB, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 <> '' AND username = $1)
		   OR ($2 <> '' AND email = $2)
		LIMIT 1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, username, email)
	logQuery(ctx, query, []any{username, email}, user.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username or email: %w", err)
	}

	return &user, nil
}

// GetByID returns the full user record, or nil when the id is unknown.
func (r *UserReadRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, userID)
	logQuery(ctx, query, []any{userID}, user.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// GetChannelProfile returns the public profile of username with subscription
// counters, and whether viewerID subscribes to it. Returns nil when the username is unknown.
func (r *UserReadRepository) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error) {
	query := `
		SELECT u.id, u.username, u.email, u.fullname, u.avatar_url, u.cover_image_url,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
		       EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2) AS is_subscribed
		FROM users u
		WHERE u.username = $1
	`

	var profile models.ChannelProfile
	err := r.db.GetContext(ctx, &profile, query, username, viewerID)
	logQuery(ctx, query, []any{username, viewerID}, profile.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel profile: %w", err)
	}

	return &profile, nil
}

type UserWriteRepository struct {
	db     *sqlx.DB
	hasher PasswordHasher
}

func NewUserWriteRepository(db *sqlx.DB, hasher PasswordHasher) *UserWriteRepository {
	return &UserWriteRepository{db: db, hasher: hasher}
}

// Create hashes the password and inserts the user, returning the assigned id.
func (r *UserWriteRepository) Create(ctx context.Context, user models.NewUser) (uuid.UUID, error) {
	hash, err := r.hasher.Hash(user.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, fullname, password_hash, avatar_url, cover_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`
	args := []any{user.Username, user.Email, user.Fullname, hash, user.AvatarURL, user.CoverImageURL}

	var id uuid.UUID
	err = r.db.GetContext(ctx, &id, query, args...)
	logQuery(ctx, query, []any{user.Username, user.Email, user.Fullname, mask(hash), user.AvatarURL, user.CoverImageURL}, id, err)

	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrUniqueViolation
		}
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}

	return id, nil
}

// SetRefreshToken overwrites the stored refresh token; nil clears it.
func (r *UserWriteRepository) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	query := `
		UPDATE users
		SET refresh_token = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, userID, token)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(ctx, query, []any{userID, maskPtr(token)}, rowsAffected, err)

	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken replaces presented with next only if presented is still
// the stored value. It reports false when the stored token differs or is empty.
func (r *UserWriteRepository) RotateRefreshToken(ctx context.Context, userID uuid.UUID, presented, next string) (bool, error) {
	query := `
		UPDATE users
		SET refresh_token = $3
		WHERE id = $1 AND refresh_token = $2
	`

	res, err := r.db.ExecContext(ctx, query, userID, presented, next)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(ctx, query, []any{userID, mask(presented), mask(next)}, rowsAffected, err)

	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return rowsAffected == 1, nil
}

// UpdatePassword hashes and stores a new password.
func (r *UserWriteRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, userID, hash)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(ctx, query, []any{userID, mask(hash)}, rowsAffected, err)

	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfileFields applies the non-nil fields of upd and returns the updated projection.
func (r *UserWriteRepository) UpdateProfileFields(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET fullname = COALESCE($2, fullname),
		    email = COALESCE($3, email),
		    avatar_url = COALESCE($4, avatar_url),
		    cover_image_url = COALESCE($5, cover_image_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns + `
	`
	args := []any{userID, upd.Fullname, upd.Email, upd.AvatarURL, upd.CoverImageURL}

	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	logQuery(ctx, query, args, user.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUniqueViolation
		}
		return nil, fmt.Errorf("update profile fields: %w", err)
	}

	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// logQuery logs query in a single line
func logQuery(ctx context.Context, query string, args []any, result any, err error) {
	logger.FromContext(ctx).Debugw("query",
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", result,
		"error", err,
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func maskPtr(secret *string) any {
	if secret == nil {
		return nil
	}
	return mask(*secret)
}
