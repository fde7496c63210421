//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locallibrary/catalog/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)

	tables := []string{
		"users",
		"api_keys",
		"authors",
		"genres",
		"languages",
		"books",
		"book_genres",
		"book_instances",
		"catalog_events",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, repo.Pool(), table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_BookInstancesSchema(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)

	for _, col := range []string{"id", "book_id", "imprint", "due_back", "borrower_id", "status"} {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, repo.Pool(), "book_instances", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in book_instances table", col)
			}
		})
	}
}

func TestIntegrationMigration_StatusConstraint(t *testing.T) {
	ctx, repo := newIntegrationRepo(t)
	author := testutil.NewTestAuthor(t, "Ann", "Leckie")
	if err := repo.CreateAuthor(ctx, author); err != nil {
		t.Fatalf("create author: %v", err)
	}
	book := testutil.NewTestBook(t, "Ancillary Justice", &author.ID)
	if err := repo.CreateBook(ctx, book); err != nil {
		t.Fatalf("create book: %v", err)
	}

	_, err := repo.Pool().Exec(ctx,
		`INSERT INTO book_instances (id, book_id, status) VALUES (gen_random_uuid(), $1, 'x')`,
		book.ID,
	)
	if err == nil {
		t.Fatal("expected status check constraint violation")
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, _ := newIntegrationRepo(t)
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("second migrate should be a no-op: %v", err)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}
