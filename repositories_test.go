package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	auth "github.com/commercekit/auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.RefreshToken)(nil),
		(*auth.ActivationToken)(nil),
		(*auth.PasswordResetToken)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func seedUser(t *testing.T, repo auth.RepositoryManager, email string) *auth.User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &auth.User{
		FirstName:    "Pepe",
		LastName:     "Rone",
		Email:        email,
		PasswordHash: "hashed-secret",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func TestUsersRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	ctx := context.Background()
	user := seedUser(t, repo, "pepe@example.com")

	t.Run("defaults applied on create", func(t *testing.T) {
		assert.Equal(t, auth.RoleCustomer, user.Role)
		assert.False(t, user.Enabled)
		assert.True(t, user.NonLocked)
	})

	t.Run("exists and get by email", func(t *testing.T) {
		exists, err := repo.Users().ExistsByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Users().ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)

		found, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		_, err = repo.Users().GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("enable flips the flag exactly once", func(t *testing.T) {
		now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.Users().EnableTx(ctx, tx, user.ID, now)
		})
		require.NoError(t, err)

		enabled, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.True(t, enabled.Enabled)

		err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.Users().EnableTx(ctx, tx, user.ID, now)
		})
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("set password", func(t *testing.T) {
		now := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC)

		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.Users().SetPasswordTx(ctx, tx, user.ID, "another-hash", now)
		})
		require.NoError(t, err)

		updated, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, "another-hash", updated.PasswordHash)
	})
}

func TestRefreshTokensRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)

	ctx := context.Background()
	user := seedUser(t, repo, "pepe@example.com")
	expires := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

	created, err := repo.RefreshTokens().Create(ctx, &auth.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: expires,
	})
	require.NoError(t, err)

	found, err := repo.RefreshTokens().GetByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.User, "lookup loads the bound user")
	assert.Equal(t, user.Email, found.User.Email)

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.RefreshTokens().GetByToken(ctx, "missing")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("delete by user", func(t *testing.T) {
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.RefreshTokens().DeleteByUserTx(ctx, tx, user.ID)
		})
		require.NoError(t, err)

		_, err = repo.RefreshTokens().GetByToken(ctx, created.Token)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestActivationTokensRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)

	ctx := context.Background()
	user := seedUser(t, repo, "pepe@example.com")

	created, err := repo.ActivationTokens().Create(ctx, &auth.ActivationToken{
		Token:  uuid.NewString(),
		UserID: user.ID,
	})
	require.NoError(t, err)

	found, err := repo.ActivationTokens().GetByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.False(t, found.Consumed())
	require.NotNil(t, found.User)

	consumedAt := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.ActivationTokens().MarkConsumedTx(ctx, tx, created.ID, consumedAt)
	})
	require.NoError(t, err)

	// the row survives consumption as an audit trail
	found, err = repo.ActivationTokens().GetByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.True(t, found.Consumed())
}

func TestPasswordResetsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)

	ctx := context.Background()
	user := seedUser(t, repo, "pepe@example.com")
	expires := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC)

	created, err := repo.PasswordResets().Create(ctx, &auth.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: expires,
	})
	require.NoError(t, err)

	found, err := repo.PasswordResets().GetByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.False(t, found.Consumed())
	assert.Equal(t, expires.Unix(), found.ExpiresAt.Unix())

	t.Run("mark consumed", func(t *testing.T) {
		consumedAt := time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC)
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.PasswordResets().MarkConsumedTx(ctx, tx, created.ID, consumedAt)
		})
		require.NoError(t, err)

		found, err := repo.PasswordResets().GetByToken(ctx, created.Token)
		require.NoError(t, err)
		assert.True(t, found.Consumed())
	})

	t.Run("delete by user", func(t *testing.T) {
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.PasswordResets().DeleteByUserTx(ctx, tx, user.ID)
		})
		require.NoError(t, err)

		_, err = repo.PasswordResets().GetByToken(ctx, created.Token)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
