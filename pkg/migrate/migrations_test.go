package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecomarket/ecocoins-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "*_create_wallets.sql"), []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"CHECK (eco_coins_balance >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_wallets_user_id ON wallets (user_id)",
		"DROP TABLE IF EXISTS wallets",
	})
}

func TestLedgerMigrationContainsIdempotencyIndex(t *testing.T) {
	assertContains(t, readMigration(t, "*_create_wallet_ledger_entries.sql"), []string{
		"CREATE TABLE IF NOT EXISTS wallet_ledger_entries",
		"CHECK (amount >= 0)",
		"ON wallet_ledger_entries (user_id, entry_type, source, ref_id)",
		"WHERE ref_id IS NOT NULL",
		"idx_wallet_ledger_user_created",
	})
}

func TestOrdersMigrationContainsItems(t *testing.T) {
	assertContains(t, readMigration(t, "*_create_orders.sql"), []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (qty >= 1)",
		"DROP TABLE IF EXISTS order_items",
	})
}

func TestProductsAndOutboxMigrations(t *testing.T) {
	assertContains(t, readMigration(t, "*_create_products.sql"), []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock >= 0)",
		"max_eco_coins_discount_percent numeric(3,2) NOT NULL DEFAULT 0.5",
	})
	assertContains(t, readMigration(t, "*_create_outbox_events.sql"), []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"WHERE published_at IS NULL",
	})
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Wallet Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_wallet_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}

func TestCreateSQLMigrationOrdersAfterLatest(t *testing.T) {
	dir := t.TempDir()
	future := filepath.Join(dir, "29991231235959_future.sql")
	if err := os.WriteFile(future, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path, err := migrate.CreateSQLMigration(dir, "next")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "30000101000000_next.sql" {
		t.Fatalf("expected version after latest, got %s", filepath.Base(path))
	}
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_bad.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected unbalanced statement markers to fail")
	}
}
