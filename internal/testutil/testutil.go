// Package testutil holds helpers shared by integration and end-to-end tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/locallibrary/catalog/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// catalogTables lists every application table, children first.
var catalogTables = []string{
	"catalog_events",
	"book_instances",
	"book_genres",
	"books",
	"genres",
	"languages",
	"authors",
	"api_keys",
	"users",
}

// TruncateAll empties every application table. The schema must already be migrated.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	query := "TRUNCATE " + strings.Join(catalogTables, ", ") + " CASCADE"
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToLower(ulid.Make().String()))
}

// NewTestUser creates a user with a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := UniqueID("user")
	return &model.User{
		ID:          id,
		Email:       id + "@library.test",
		DisplayName: "Test Patron",
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTestAPIKey creates a read-scoped test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	return &model.APIKey{
		ID:            UniqueID("key"),
		UserID:        userID,
		KeyHash:       UniqueID("hash"),
		KeyPrefix:     "lk_test_",
		Scopes:        []string{model.ScopeRead},
		RateLimitTier: model.TierPatron,
		Name:          "Test Key",
		CreatedAt:     time.Now().UTC(),
	}
}

// NewTestAPIKeyWithTier creates a test API key with a specific tier.
func NewTestAPIKeyWithTier(t testing.TB, userID string, tier string) *model.APIKey {
	t.Helper()
	key := NewTestAPIKey(t, userID)
	key.RateLimitTier = tier
	return key
}

// NewTestAuthor creates an author with the given name.
func NewTestAuthor(t testing.TB, first, last string) *model.Author {
	t.Helper()
	now := time.Now().UTC()
	return &model.Author{
		ID:        UniqueID("author"),
		FirstName: first,
		LastName:  last,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestBook creates a book with a unique ISBN.
func NewTestBook(t testing.TB, title string, authorID *string) *model.Book {
	t.Helper()
	now := time.Now().UTC()
	return &model.Book{
		ID:        UniqueID("book"),
		Title:     title,
		AuthorID:  authorID,
		Summary:   "A test book.",
		ISBN:      fmt.Sprintf("%013d", now.UnixNano()%1e13),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
