package service

import (
	"path/filepath"
	"testing"

	"finquest/internal/database"
	"finquest/internal/repository"
)

func setupSeedEnv(t *testing.T) (*SeedService, *repository.TransactionRepository) {
	if testing.Short() {
		t.Skip("skipping database integration test")
	}
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewTransactionRepository(db)
	return NewSeedService(repo), repo
}

func TestGenerateDemo(t *testing.T) {
	seeder, repo := setupSeedEnv(t)

	n, err := seeder.GenerateDemo("u-demo", 30, 1)
	if err != nil {
		t.Fatalf("GenerateDemo failed: %v", err)
	}
	if n < 30 {
		t.Errorf("generated %d transactions over 30 days, want at least one per day", n)
	}

	count, err := repo.CountSince("u-demo", "0000-01-01")
	if err != nil || count != n {
		t.Errorf("stored %d, reported %d", count, n)
	}

	// every fabricated transaction maps onto a game bucket
	txns, _ := repo.ListSince("u-demo", "0000-01-01")
	for i := range txns {
		if NormalizeCategory(&txns[i]) == "" {
			t.Errorf("demo transaction %s has no game bucket", txns[i].ID)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	seeder, repo := setupSeedEnv(t)

	if _, err := seeder.GenerateDemo("u-src", 10, 2); err != nil {
		t.Fatalf("GenerateDemo failed: %v", err)
	}
	srcCount, _ := repo.CountSince("u-src", "0000-01-01")

	data, err := seeder.Export("u-src")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// restoring an export over the same user is a no-op upsert
	n, err := seeder.Import("u-src", data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != srcCount {
		t.Errorf("imported %d, want %d", n, srcCount)
	}

	after, _ := repo.CountSince("u-src", "0000-01-01")
	if after != srcCount {
		t.Errorf("re-import changed row count: %d, want %d", after, srcCount)
	}
}

func TestImportRejectsBadAmount(t *testing.T) {
	seeder, _ := setupSeedEnv(t)

	if _, err := seeder.Import("u-x", []byte(`[{"id":"t1","date":"2025-03-10","name":"A","amount":"not-money"}]`)); err == nil {
		t.Error("expected an error for unparseable amount")
	}
}
