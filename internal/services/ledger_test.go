package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"hisaab/internal/models"
)

// ledger wires every service against one test database with a fixed clock.
type ledger struct {
	categories   CategoryServicer
	transactions TransactionServicer
	loans        *loanService
	settlements  *settlementService
	analytics    *analyticsService
}

func newLedger(t *testing.T, db *gorm.DB, today string) *ledger {
	t.Helper()

	clock := fixedClock(t, today)
	audit := NewAuditService(db)
	categories := NewCategoryService(db)
	transactions := NewTransactionService(db, audit)

	loans := NewLoanService(db, categories, transactions, audit).(*loanService)
	loans.now = clock

	settlements := NewSettlementService(db, categories, transactions, loans, audit, "INR").(*settlementService)
	settlements.now = clock

	analytics := NewAnalyticsService(db).(*analyticsService)
	analytics.now = clock

	return &ledger{
		categories:   categories,
		transactions: transactions,
		loans:        loans,
		settlements:  settlements,
		analytics:    analytics,
	}
}

func fixedClock(t *testing.T, day string) func() time.Time {
	t.Helper()

	ts, err := time.Parse(models.DateLayout, day)
	if err != nil {
		t.Fatalf("bad clock date %q: %v", day, err)
	}
	ts = ts.Add(12 * time.Hour)
	return func() time.Time { return ts }
}

func countTransactions(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

func loadLoan(t *testing.T, db *gorm.DB, id string) models.LoanDebt {
	t.Helper()

	var loan models.LoanDebt
	if err := db.Where("id = ?", id).First(&loan).Error; err != nil {
		t.Fatalf("load loan %s: %v", id, err)
	}
	return loan
}

// blockInserts makes SQLite reject transaction rows matching cond until the
// returned func is called.
func blockInserts(t *testing.T, db *gorm.DB, cond string) func() {
	t.Helper()

	stmt := "CREATE TRIGGER block_transactions BEFORE INSERT ON transactions WHEN " + cond +
		" BEGIN SELECT RAISE(ABORT, 'insert blocked'); END"
	if err := db.Exec(stmt).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	return func() {
		if err := db.Exec("DROP TRIGGER IF EXISTS block_transactions").Error; err != nil {
			t.Fatalf("drop trigger: %v", err)
		}
	}
}
