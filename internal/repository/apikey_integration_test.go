//go:build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/testutil"
)

// ============================================================================
// API Key Repository Integration Tests
// ============================================================================

func TestIntegrationAPIKeyRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	user := mustCreateUser(t, ctx, repo)

	key := testutil.NewTestAPIKey(t, user.ID)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}

	if retrieved.UserID != user.ID {
		t.Errorf("UserID mismatch: got %q, want %q", retrieved.UserID, user.ID)
	}
	if retrieved.KeyHash != key.KeyHash {
		t.Errorf("KeyHash mismatch: got %q, want %q", retrieved.KeyHash, key.KeyHash)
	}
	if retrieved.RateLimitTier != model.TierPatron {
		t.Errorf("RateLimitTier mismatch: got %q, want %q", retrieved.RateLimitTier, model.TierPatron)
	}
}

func TestIntegrationAPIKeyRepository_CreateForUnknownUser(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)

	key := testutil.NewTestAPIKey(t, "missing-user")
	if err := repo.CreateAPIKey(ctx, key); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationAPIKeyRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)

	_, err := repo.GetAPIKeyByID(ctx, "nonexistent-key-id")
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_GetByPrefix_ExcludesRevoked(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	user := mustCreateUser(t, ctx, repo)
	prefix := "lk_revoke_"

	key1 := testutil.NewTestAPIKey(t, user.ID)
	key1.KeyPrefix = prefix
	key2 := testutil.NewTestAPIKey(t, user.ID)
	key2.KeyPrefix = prefix

	for _, k := range []*model.APIKey{key1, key2} {
		if err := repo.CreateAPIKey(ctx, k); err != nil {
			t.Fatalf("CreateAPIKey failed: %v", err)
		}
	}

	if err := repo.RevokeAPIKey(ctx, key1.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}

	keys, err := repo.GetAPIKeysByPrefix(ctx, prefix)
	if err != nil {
		t.Fatalf("GetAPIKeysByPrefix failed: %v", err)
	}
	if len(keys) != 1 || keys[0].ID != key2.ID {
		t.Fatalf("expected only key2 to remain active, got %d keys", len(keys))
	}

	if err := repo.RevokeAPIKey(ctx, key1.ID); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound on double revoke, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_ListByUserID(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	user := mustCreateUser(t, ctx, repo)

	for i := 0; i < 3; i++ {
		key := testutil.NewTestAPIKey(t, user.ID)
		key.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.CreateAPIKey(ctx, key); err != nil {
			t.Fatalf("CreateAPIKey (%d) failed: %v", i, err)
		}
	}

	keys, err := repo.ListAPIKeysByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListAPIKeysByUserID failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(keys))
	}
	if !keys[0].CreatedAt.After(keys[2].CreatedAt) {
		t.Error("expected newest key first")
	}
}

func TestIntegrationAPIKeyRepository_UpdateLastUsed(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	user := mustCreateUser(t, ctx, repo)

	key := testutil.NewTestAPIKey(t, user.ID)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if err := repo.UpdateAPIKeyLastUsed(ctx, key.ID); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}
	if retrieved.LastUsedAt == nil {
		t.Error("LastUsedAt should be set after update")
	}
}

func TestIntegrationAPIKeyRepository_ScopesAndTierPersistence(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	user := mustCreateUser(t, ctx, repo)

	key := testutil.NewTestAPIKeyWithTier(t, user.ID, model.TierStaff)
	key.Scopes = []string{model.ScopeRead, model.ScopeLibrarian}
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}
	if !retrieved.HasScope(model.ScopeLibrarian) {
		t.Error("Key should have librarian scope")
	}
	if retrieved.HasScope(model.ScopeAdmin) {
		t.Error("Key should not have admin scope")
	}
	if got := retrieved.GetRateLimitConfig(); got != model.TierConfigs[model.TierStaff] {
		t.Errorf("rate limit config mismatch: %+v", got)
	}
}
