package database

import (
	"fmt"
	"sync/atomic"
	"testing"
)

var dbSeq atomic.Int64

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := &Config{
		Driver: DriverSQLite,
		Path:   fmt.Sprintf("file:migratetest%d?mode=memory&cache=shared", dbSeq.Add(1)),
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return m
}

func countRows(t *testing.T, m *Manager, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := m.DB().Raw(query, args...).Scan(&n).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func loansCategoryCount(t *testing.T, m *Manager) int64 {
	return countRows(t, m, "SELECT COUNT(*) FROM categories WHERE name_key = ? AND applicability = ?", "loans & debts", "both")
}

func TestMigrateCreatesSchemaAndSeeds(t *testing.T) {
	m := newTestManager(t)

	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for _, table := range []string{"users", "categories", "transactions", "persons", "loans_debts", "pending_postings", "audit_logs"} {
		if err := m.DB().Table(table).Limit(1).Find(&[]map[string]interface{}{}).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}

	if got := countRows(t, m, "SELECT COUNT(*) FROM categories"); got != 14 {
		t.Errorf("expected 14 seeded categories, got %d", got)
	}
	if got := loansCategoryCount(t, m); got != 1 {
		t.Errorf("expected exactly one Loans & Debts category, got %d", got)
	}

	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("expected clean version 2, got %d (dirty=%v)", version, dirty)
	}
}

func TestMigrateTwiceIsNoop(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 2; i++ {
		if err := m.Migrate(); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}
	if got := countRows(t, m, "SELECT COUNT(*) FROM categories"); got != 14 {
		t.Errorf("expected 14 categories after second run, got %d", got)
	}
}

func TestBaselineStepRestoresLoansCategory(t *testing.T) {
	m := newTestManager(t)
	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if err := m.DB().Exec("DELETE FROM categories WHERE name_key = ?", "loans & debts").Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Rollback(1); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if got := loansCategoryCount(t, m); got != 1 {
		t.Errorf("expected Loans & Debts to be recreated once, got %d", got)
	}
}

func TestMigrateRecoversDirtyMarker(t *testing.T) {
	tests := []struct {
		name    string
		version int
	}{
		{name: "interrupted baseline step", version: 2},
		{name: "interrupted initial schema", version: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			if err := m.Migrate(); err != nil {
				t.Fatalf("Migrate: %v", err)
			}

			if err := m.DB().Exec("UPDATE schema_migrations SET version = ?, dirty = ?", tt.version, true).Error; err != nil {
				t.Fatalf("mark dirty: %v", err)
			}

			if err := m.Migrate(); err != nil {
				t.Fatalf("Migrate after dirty marker: %v", err)
			}

			version, dirty, err := m.Version()
			if err != nil {
				t.Fatalf("Version: %v", err)
			}
			if version != 2 || dirty {
				t.Errorf("expected clean version 2, got %d (dirty=%v)", version, dirty)
			}
			if got := countRows(t, m, "SELECT COUNT(*) FROM categories"); got != 14 {
				t.Errorf("re-run must not duplicate seed rows, got %d categories", got)
			}
			if got := loansCategoryCount(t, m); got != 1 {
				t.Errorf("expected one Loans & Debts category, got %d", got)
			}
		})
	}
}

func TestRollbackRejectsNonPositiveSteps(t *testing.T) {
	m := newTestManager(t)
	if err := m.Rollback(0); err == nil {
		t.Error("expected error for zero steps")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "on-disk file uses WAL",
			path: "data/hisaab.db",
			want: "file:data/hisaab.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "in-memory keeps its query",
			path: "file:x?mode=memory&cache=shared",
			want: "file:x?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Driver: DriverSQLite, Path: tt.path}
			if got := cfg.SQLiteDSN(); got != tt.want {
				t.Errorf("SQLiteDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	want := "postgres://u:p%40ss@db:5432/ledger?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestRollbackAndVersion(t *testing.T) {
	m := newTestManager(t)

	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("Version before migrating: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("expected empty schema, got %d (dirty=%v)", version, dirty)
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if err := m.Rollback(1); err != nil {
		t.Fatalf("Rollback(1): %v", err)
	}
	if version, _, _ := m.Version(); version != 1 {
		t.Errorf("expected version 1 after one step back, got %d", version)
	}
	if got := loansCategoryCount(t, m); got != 1 {
		t.Errorf("expected baseline rollback to keep Loans & Debts, got %d", got)
	}

	if err := m.Rollback(1); err != nil {
		t.Fatalf("Rollback to empty: %v", err)
	}
	if got := countRows(t, m, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'transactions'"); got != 0 {
		t.Error("expected transactions table to be dropped")
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate after full rollback: %v", err)
	}
	if got := countRows(t, m, "SELECT COUNT(*) FROM categories"); got != 14 {
		t.Errorf("expected 14 seeded categories, got %d", got)
	}
}
