package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/passwords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

func setupUserPostgresContainer(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(ctx, db.DB))
	return db
}

func TestUserRepositories_Postgres(t *testing.T) {
	db := setupUserPostgresContainer(t)
	ctx := context.Background()

	writeRepo := NewUserWriteRepository(db, passwords.New(bcrypt.MinCost))
	readRepo := NewUserReadRepository(db)

	id, err := writeRepo.Create(ctx, models.NewUser{
		Username:  "alice",
		Email:     "alice@x.com",
		Fullname:  "Alice A",
		Password:  "Secret123!",
		AvatarURL: "https://cdn/a.png",
	})
	require.NoError(t, err)

	t.Run("Password is hashed", func(t *testing.T) {
		user, err := readRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, "Secret123!", user.PasswordHash)
		assert.True(t, passwords.New(bcrypt.MinCost).Compare(user.PasswordHash, "Secret123!"))
		assert.Nil(t, user.RefreshToken)
	})

	t.Run("Lookup by either field", func(t *testing.T) {
		byName, err := readRepo.GetByUsernameOrEmail(ctx, "alice", "")
		require.NoError(t, err)
		assert.Equal(t, id, byName.UserID)

		byEmail, err := readRepo.GetByUsernameOrEmail(ctx, "", "alice@x.com")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.UserID)

		none, err := readRepo.GetByUsernameOrEmail(ctx, "nobody", "nobody@x.com")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("Unique username and email", func(t *testing.T) {
		_, err := writeRepo.Create(ctx, models.NewUser{
			Username: "alice", Email: "other@x.com", Fullname: "X", Password: "p", AvatarURL: "u",
		})
		assert.ErrorIs(t, err, ErrUniqueViolation)

		_, err = writeRepo.Create(ctx, models.NewUser{
			Username: "other", Email: "alice@x.com", Fullname: "X", Password: "p", AvatarURL: "u",
		})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	t.Run("Refresh token rotation", func(t *testing.T) {
		first := "rt-1"
		require.NoError(t, writeRepo.SetRefreshToken(ctx, id, &first))

		ok, err := writeRepo.RotateRefreshToken(ctx, id, "rt-1", "rt-2")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = writeRepo.RotateRefreshToken(ctx, id, "rt-1", "rt-3")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, writeRepo.SetRefreshToken(ctx, id, nil))
		ok, err = writeRepo.RotateRefreshToken(ctx, id, "rt-2", "rt-4")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Profile update and channel", func(t *testing.T) {
		cover := "https://cdn/c.png"
		user, err := writeRepo.UpdateProfileFields(ctx, id, models.ProfileUpdate{CoverImageURL: &cover})
		require.NoError(t, err)
		assert.Equal(t, cover, user.CoverImageURL)
		assert.Equal(t, "https://cdn/a.png", user.AvatarURL)

		viewer, err := writeRepo.Create(ctx, models.NewUser{
			Username: "bob", Email: "bob@x.com", Fullname: "Bob", Password: "p", AvatarURL: "u",
		})
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)`, viewer, id)
		require.NoError(t, err)

		profile, err := readRepo.GetChannelProfile(ctx, "alice", viewer)
		require.NoError(t, err)
		assert.Equal(t, int64(1), profile.SubscriberCount)
		assert.Equal(t, int64(0), profile.SubscribedToCount)
		assert.True(t, profile.IsSubscribed)
	})
}
