// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/auth/postgres"
	"github.com/holomush/storefront/internal/store"
)

// testPool is the shared database pool for integration tests.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to get connection string: " + err.Error())
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to create migrator: " + err.Error())
	}
	if err := migrator.Up(); err != nil {
		_ = container.Terminate(ctx)
		panic("failed to run migrations: " + err.Error())
	}
	_ = migrator.Close()

	testPool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to create pool: " + err.Error())
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func createUser(t *testing.T, email string) *auth.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user, err := auth.NewUser("tester", email, "digest", now)
	require.NoError(t, err)
	require.NoError(t, postgres.NewUserRepository(testPool).Create(ctx, user))
	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID.String())
	})
	return user
}

func TestUserRepository_EmailUniqueIgnoresCase(t *testing.T) {
	ctx := context.Background()
	createUser(t, "case@example.com")

	dup, err := auth.NewUser("other", "case@example.com", "digest", time.Now())
	require.NoError(t, err)
	dup.Email = "CASE@example.com"

	err = postgres.NewUserRepository(testPool).Create(ctx, dup)
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestUserRepository_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)
	user := createUser(t, "tokens@example.com")
	now := time.Now().UTC()
	token := strings.Repeat("ab", 32)

	require.NoError(t, repo.SetToken(ctx, user.ID, auth.TokenConfirm, token, now.Add(time.Hour)))

	_, err := repo.ConsumeToken(ctx, auth.TokenConfirm, token, now.Add(2*time.Hour), auth.TokenEffect{Confirm: true})
	assert.ErrorIs(t, err, auth.ErrNotFound, "expired token must not be consumed")

	confirmed, err := repo.ConsumeToken(ctx, auth.TokenConfirm, token, now, auth.TokenEffect{Confirm: true})
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	_, err = repo.ConsumeToken(ctx, auth.TokenConfirm, token, now, auth.TokenEffect{Confirm: true})
	assert.ErrorIs(t, err, auth.ErrNotFound, "token is single use")

	err = repo.SetToken(ctx, user.ID, auth.TokenConfirm, token, now.Add(time.Hour))
	assert.ErrorIs(t, err, auth.ErrNotFound, "confirmed users get no confirm token")
}

func TestUserRepository_ConcurrentConsumeRedeemsOnce(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)
	user := createUser(t, "race@example.com")
	now := time.Now().UTC()
	token := strings.Repeat("cd", 32)
	require.NoError(t, repo.SetToken(ctx, user.ID, auth.TokenReset, token, now.Add(15*time.Minute)))

	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ConsumeToken(ctx, auth.TokenReset, token, now, auth.TokenEffect{PasswordHash: "new"}); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.PasswordHash)
}
