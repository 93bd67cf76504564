package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"hisaab/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// GetCategoryByName loads a seeded or created category by its display name
// and applicability.
func GetCategoryByName(t *testing.T, db *gorm.DB, name string, applicability models.Applicability) *models.Category {
	t.Helper()

	var category models.Category
	err := db.Where("name_key = ? AND applicability = ?", models.CategoryKey(name), applicability).
		First(&category).Error
	if err != nil {
		t.Fatalf("failed to load category %q/%s: %v", name, applicability, err)
	}
	return &category
}

// CreateTestCategory creates a user-created category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, applicability models.Applicability) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:          fmt.Sprintf("Test Category %d", nextID()),
		Applicability: applicability,
		UserCreated:   true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPerson creates a counterparty with a unique name.
func CreateTestPerson(t *testing.T, db *gorm.DB, userID string) *models.Person {
	t.Helper()
	return CreateTestPersonWithName(t, db, userID, fmt.Sprintf("Person %d", nextID()))
}

// CreateTestPersonWithName creates a counterparty with the given name.
func CreateTestPersonWithName(t *testing.T, db *gorm.DB, userID, name string) *models.Person {
	t.Helper()

	person := &models.Person{UserID: userID, Name: name}
	if err := db.Create(person).Error; err != nil {
		t.Fatalf("failed to create test person: %v", err)
	}
	return person
}

// CreateTestLoan inserts a pending loan or debt directly, without posting a
// mirrored transaction.
func CreateTestLoan(t *testing.T, db *gorm.DB, userID, personID string, direction models.LoanDirection, amount string, date string) *models.LoanDebt {
	t.Helper()

	loan := &models.LoanDebt{
		UserID:      userID,
		PersonID:    personID,
		Amount:      decimal.RequireFromString(amount),
		Direction:   direction,
		Reason:      fmt.Sprintf("reason %d", nextID()),
		DateCreated: date,
		Status:      models.LoanStatusPending,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// CreateTestTransaction inserts a transaction directly.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID string, kind models.TransactionKind, mode models.PaymentMode, amount string, date string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Mode:        mode,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		CategoryID:  categoryID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
