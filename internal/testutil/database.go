// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"hisaab/internal/database"

	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// SetupTestDB creates an isolated in-memory SQLite database migrated with the
// same embedded migrations the service runs at startup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	mgr, err := database.NewManager(&database.Config{
		Driver: database.DriverSQLite,
		Path:   fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1)),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := mgr.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return mgr.DB()
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
