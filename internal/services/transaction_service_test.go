package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"hisaab/internal/models"
	"hisaab/internal/pagination"
	"hisaab/internal/testutil"
)

func expenseInput(categoryID, amount, date string) TransactionInput {
	return TransactionInput{
		Date:        date,
		Mode:        models.PaymentModeUPI,
		Description: "Lunch",
		Amount:      decimal.RequireFromString(amount),
		Kind:        models.TransactionKindExpense,
		CategoryID:  categoryID,
	}
}

func TestAddTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

		tx, err := svc.AddTransaction(user.ID, expenseInput(food.ID, "120.50", "2024-03-10"))
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected transaction ID")
		}
		testutil.AssertDecimal(t, tx.Amount, "120.50")
		if tx.CategoryName != "Food & Dining" {
			t.Errorf("expected category name, got %q", tx.CategoryName)
		}
	})

	t.Run("income_defaults_to_no_mode", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		salary := testutil.GetCategoryByName(t, db, "Salary", models.ApplicabilityIncome)

		tx, err := svc.AddTransaction(user.ID, TransactionInput{
			Date:       "2024-03-01",
			Amount:     decimal.NewFromInt(50000),
			Kind:       models.TransactionKindIncome,
			CategoryID: salary.ID,
		})
		testutil.AssertNoError(t, err)
		if tx.Mode != models.PaymentModeNone {
			t.Errorf("expected mode N/A, got %s", tx.Mode)
		}
	})

	tests := []struct {
		name     string
		mutate   func(in *TransactionInput)
		wantCode string
	}{
		{"zero_amount", func(in *TransactionInput) { in.Amount = decimal.Zero }, "CONSTRAINT_VIOLATION"},
		{"negative_amount", func(in *TransactionInput) { in.Amount = decimal.NewFromInt(-5) }, "CONSTRAINT_VIOLATION"},
		{"unknown_kind", func(in *TransactionInput) { in.Kind = "transfer" }, "CONSTRAINT_VIOLATION"},
		{"unknown_mode", func(in *TransactionInput) { in.Mode = "Cheque" }, "CONSTRAINT_VIOLATION"},
		{"expense_without_mode", func(in *TransactionInput) { in.Mode = "" }, "CONSTRAINT_VIOLATION"},
		{"bad_date", func(in *TransactionInput) { in.Date = "10/03/2024" }, "INVALID_INPUT"},
		{"impossible_date", func(in *TransactionInput) { in.Date = "2024-02-30" }, "INVALID_INPUT"},
		{"missing_category", func(in *TransactionInput) { in.CategoryID = "00000000-0000-7000-8000-ffffffffffff" }, "CATEGORY_NOT_FOUND"},
		{"income_category_on_expense", func(in *TransactionInput) { in.CategoryID = "00000000-0000-7000-8000-000000000009" }, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := NewTransactionService(db, NewAuditService(db))
			user := testutil.CreateTestUser(t, db)
			food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

			in := expenseInput(food.ID, "10", "2024-03-10")
			tt.mutate(&in)

			_, err := svc.AddTransaction(user.ID, in)
			testutil.AssertAppError(t, err, tt.wantCode)

			if n := countTransactions(t, db, user.ID); n != 0 {
				t.Errorf("expected nothing stored, found %d rows", n)
			}
		})
	}

	t.Run("store_rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

		err := db.Create(&models.Transaction{
			UserID:     user.ID,
			Date:       "2024-03-10",
			Mode:       models.PaymentModeCash,
			Amount:     decimal.NewFromInt(-1),
			Kind:       models.TransactionKindExpense,
			CategoryID: food.ID,
		}).Error
		if err == nil {
			t.Fatal("expected the CHECK constraint to reject a negative amount")
		}
		if !isCheckViolation(err) {
			t.Errorf("expected a CHECK violation, got %v", err)
		}
		testutil.AssertAppError(t, writeError(err), "CONSTRAINT_VIOLATION")
	})

	t.Run("other_store_errors_are_internal", func(t *testing.T) {
		err := errors.New("disk I/O error")
		if isCheckViolation(err) {
			t.Error("expected a plain error not to count as a CHECK violation")
		}
		testutil.AssertAppError(t, writeError(err), "INTERNAL_ERROR")
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("newest_first_with_id_tiebreak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

		older, err := svc.AddTransaction(user.ID, expenseInput(food.ID, "10", "2024-03-01"))
		testutil.AssertNoError(t, err)
		first, err := svc.AddTransaction(user.ID, expenseInput(food.ID, "20", "2024-03-05"))
		testutil.AssertNoError(t, err)
		second, err := svc.AddTransaction(user.ID, expenseInput(food.ID, "30", "2024-03-05"))
		testutil.AssertNoError(t, err)

		list, err := svc.ListTransactions(user.ID, TransactionFilter{})
		testutil.AssertNoError(t, err)

		want := []string{second.ID, first.ID, older.ID}
		if len(list) != len(want) {
			t.Fatalf("expected %d transactions, got %d", len(want), len(list))
		}
		for i, id := range want {
			if list[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
			}
		}
		if list[0].CategoryName != "Food & Dining" {
			t.Errorf("expected joined category name, got %q", list[0].CategoryName)
		}
	})

	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", "2024-02-28")
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeUPI, "20", "2024-03-01")
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "30", "2024-03-31")
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "40", "2024-04-01")
		testutil.CreateTestTransaction(t, db, other.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "50", "2024-03-15")

		cash := models.PaymentModeCash
		none := models.PaymentModeNone
		from, to := "2024-03-01", "2024-03-31"

		tests := []struct {
			name   string
			filter TransactionFilter
			want   int
		}{
			{"no_filter", TransactionFilter{}, 4},
			{"mode", TransactionFilter{Mode: &cash}, 3},
			{"mode_na_is_ignored", TransactionFilter{Mode: &none}, 4},
			{"inclusive_range", TransactionFilter{DateFrom: &from, DateTo: &to}, 2},
			{"mode_and_range", TransactionFilter{Mode: &cash, DateFrom: &from, DateTo: &to}, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				list, err := svc.ListTransactions(user.ID, tt.filter)
				testutil.AssertNoError(t, err)
				if len(list) != tt.want {
					t.Errorf("expected %d transactions, got %d", tt.want, len(list))
				}
			})
		}
	})

	t.Run("invalid_filter_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))

		bad := "March"
		_, err := svc.ListTransactions("u", TransactionFilter{DateFrom: &bad})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewAuditService(db))
	user := testutil.CreateTestUser(t, db)
	food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

	for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"} {
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", date)
	}

	page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, TransactionFilter{})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 5 || page.TotalPages != 3 {
		t.Errorf("expected 5 items over 3 pages, got %d over %d", page.TotalItems, page.TotalPages)
	}
	if !page.HasMore {
		t.Error("expected more pages after page 2")
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(page.Data))
	}
	if page.Data[0].Date != "2024-03-03" {
		t.Errorf("expected page 2 to start at 2024-03-03, got %s", page.Data[0].Date)
	}
}

func TestGetTransactionByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewAuditService(db))
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)
	tx := testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", "2024-03-01")

	got, err := svc.GetTransactionByID(user.ID, tx.ID)
	testutil.AssertNoError(t, err)
	if got.CategoryName != "Food & Dining" {
		t.Errorf("expected category name, got %q", got.CategoryName)
	}

	_, err = svc.GetTransactionByID(other.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)
		transport := testutil.GetCategoryByName(t, db, "Transport", models.ApplicabilityExpense)
		tx := testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", "2024-03-01")

		in := expenseInput(transport.ID, "75.25", "2024-03-02")
		in.Description = "Cab"
		updated, err := svc.UpdateTransaction(user.ID, tx.ID, in)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, updated.Amount, "75.25")
		if updated.CategoryName != "Transport" || updated.Description != "Cab" || updated.Date != "2024-03-02" {
			t.Errorf("unexpected updated transaction: %+v", updated)
		}

		var audits int64
		db.Model(&models.AuditLog{}).Where("action = ? AND resource_id = ?", "UPDATE_TRANSACTION", tx.ID).Count(&audits)
		if audits != 1 {
			t.Errorf("expected one audit entry, got %d", audits)
		}
	})

	t.Run("rejects_zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)
		tx := testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", "2024-03-01")

		_, err := svc.UpdateTransaction(user.ID, tx.ID, expenseInput(food.ID, "0", "2024-03-01"))
		testutil.AssertAppError(t, err, "CONSTRAINT_VIOLATION")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)

		_, err := svc.UpdateTransaction(user.ID, "00000000-0000-7000-8000-ffffffffffff", expenseInput(food.ID, "5", "2024-03-01"))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("removes_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		food := testutil.GetCategoryByName(t, db, "Food & Dining", models.ApplicabilityExpense)
		tx := testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionKindExpense, models.PaymentModeCash, "10", "2024-03-01")

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		err = svc.DeleteTransaction(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("mirrored_posting_leaves_loan_intact", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		l := newLedger(t, db, "2024-03-15")
		user := testutil.CreateTestUser(t, db)
		person := testutil.CreateTestPersonWithName(t, db, user.ID, "Asha")

		loan, err := l.loans.AddLoanDebt(user.ID, LoanInput{
			PersonID:  person.ID,
			Amount:    decimal.NewFromInt(500),
			Direction: models.LoanDirectionLent,
			Reason:    "rent",
		})
		testutil.AssertNoError(t, err)

		list, err := l.transactions.ListTransactions(user.ID, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(list) != 1 {
			t.Fatalf("expected the mirrored posting, got %d rows", len(list))
		}

		testutil.AssertNoError(t, l.transactions.DeleteTransaction(user.ID, list[0].ID))

		stored := loadLoan(t, db, loan.ID)
		if stored.Status != models.LoanStatusPending {
			t.Errorf("expected loan to stay pending, got %s", stored.Status)
		}
	})
}
