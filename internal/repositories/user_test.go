package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/stretchr/testify/assert"
)

type stubHasher struct {
	err error
}

func (h stubHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

var userRowColumns = []string{
	"id", "username", "email", "fullname", "password_hash",
	"avatar_url", "cover_image_url", "refresh_token", "created_at", "updated_at",
}

func TestUserReadRepository_GetByUsernameOrEmail(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("alice", "").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "alice", "alice@x.com", "Alice A", "hash", "https://cdn/a.png", "", "rt", now, now))

		user, err := repo.GetByUsernameOrEmail(ctx, "alice", "")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, id, user.UserID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.Equal(t, "rt", *user.RefreshToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("", "nobody@x.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetByUsernameOrEmail(ctx, "", "nobody@x.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("DBError", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WillReturnError(errors.New("connection reset"))

		user, err := repo.GetByUsernameOrEmail(ctx, "alice", "alice@x.com")
		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestUserReadRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("Found with cleared refresh token", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "alice", "alice@x.com", "Alice A", "hash", "https://cdn/a.png", "", nil, now, now))

		user, err := repo.GetByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, id, user.UserID)
		assert.Nil(t, user.RefreshToken)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetByID(ctx, id)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestUserReadRepository_GetChannelProfile(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	viewer := uuid.New()
	cols := []string{"id", "username", "email", "fullname", "avatar_url", "cover_image_url",
		"subscriber_count", "subscribed_to_count", "is_subscribed"}

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("alice", viewer).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(id.String(), "alice", "alice@x.com", "Alice A", "https://cdn/a.png", "", int64(3), int64(1), true))

		profile, err := repo.GetChannelProfile(ctx, "alice", viewer)
		assert.NoError(t, err)
		assert.Equal(t, &models.ChannelProfile{
			UserID:            id,
			Username:          "alice",
			Email:             "alice@x.com",
			Fullname:          "Alice A",
			AvatarURL:         "https://cdn/a.png",
			SubscriberCount:   3,
			SubscribedToCount: 1,
			IsSubscribed:      true,
		}, profile)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
			WithArgs("ghost", viewer).
			WillReturnRows(sqlmock.NewRows(cols))

		profile, err := repo.GetChannelProfile(ctx, "ghost", viewer)
		assert.NoError(t, err)
		assert.Nil(t, profile)
	})
}

func TestUserWriteRepository_Create(t *testing.T) {
	ctx := context.Background()
	newUser := models.NewUser{
		Username:  "alice",
		Email:     "alice@x.com",
		Fullname:  "Alice A",
		Password:  "Secret123!",
		AvatarURL: "https://cdn/a.png",
	}

	t.Run("Stores hash, not raw password", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("alice", "alice@x.com", "Alice A", "hashed:Secret123!", "https://cdn/a.png", "").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

		got, err := repo.Create(ctx, newUser)
		assert.NoError(t, err)
		assert.Equal(t, id, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique violation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		_, err := repo.Create(ctx, newUser)
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	t.Run("Hash error", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{err: errors.New("too long")})

		_, err := repo.Create(ctx, newUser)
		assert.Error(t, err)
	})
}

func TestUserWriteRepository_SetRefreshToken(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	token := "rt-1"

	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db, stubHasher{})

	mock.ExpectExec(regexp.QuoteMeta("SET refresh_token = $2")).
		WithArgs(id, "rt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET refresh_token = $2")).
		WithArgs(id, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetRefreshToken(ctx, id, &token))
	assert.NoError(t, repo.SetRefreshToken(ctx, id, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     bool
		wantErr  bool
	}{
		{name: "Stored token matches", affected: 1, want: true},
		{name: "Stored token differs", affected: 0, want: false},
		{name: "DB error", execErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserWriteRepository(db, stubHasher{})

			exp := mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND refresh_token = $2")).
				WithArgs(id, "old", "new")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			ok, err := repo.RotateRefreshToken(ctx, id, "old", "new")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestUserWriteRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})

		mock.ExpectExec(regexp.QuoteMeta("SET password_hash = $2")).
			WithArgs(id, "hashed:NewPass1!").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdatePassword(ctx, id, "NewPass1!"))
	})

	t.Run("Unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})

		mock.ExpectExec(regexp.QuoteMeta("SET password_hash = $2")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdatePassword(ctx, id, "NewPass1!"), ErrUserNotFound)
	})
}

func TestUserWriteRepository_UpdateProfileFields(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()
	cols := []string{"id", "username", "email", "fullname", "avatar_url", "cover_image_url", "created_at", "updated_at"}
	name := "Alice B"

	t.Run("Partial update", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
			WithArgs(id, "Alice B", nil, nil, nil).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(id.String(), "alice", "alice@x.com", "Alice B", "https://cdn/a.png", "", now, now))

		user, err := repo.UpdateProfileFields(ctx, id, models.ProfileUpdate{Fullname: &name})
		assert.NoError(t, err)
		assert.Equal(t, "Alice B", user.Fullname)
		assert.Equal(t, "https://cdn/a.png", user.AvatarURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.UpdateProfileFields(ctx, id, models.ProfileUpdate{Fullname: &name})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Email taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db, stubHasher{})
		email := "bob@x.com"

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.UpdateProfileFields(ctx, id, models.ProfileUpdate{Email: &email})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})
}

func TestMask(t *testing.T) {
	s := "secret"
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("secret"))
	assert.Nil(t, maskPtr(nil))
	assert.Equal(t, "***", maskPtr(&s))
}
