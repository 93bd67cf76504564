package services

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hisaab/internal/models"
	"hisaab/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, password string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(username, password string) (*models.User, error)
}

// CategoryServicer defines the contract for the category registry.
type CategoryServicer interface {
	ListCategories(applicability *models.Applicability) ([]models.Category, error)
	AddCategory(name string, applicability models.Applicability) (string, error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	// EnsureCategory looks a category up by name and applicability inside
	// tx, creating it as a system category when it is missing.
	EnsureCategory(tx *gorm.DB, name string, applicability models.Applicability) (*models.Category, error)
	ResolveSettlementCategory(tx *gorm.DB, kind models.TransactionKind) (*models.Category, error)
}

// TransactionInput carries the caller-supplied fields of a transaction.
type TransactionInput struct {
	Date        string
	Mode        models.PaymentMode
	Description string
	Amount      decimal.Decimal
	Kind        models.TransactionKind
	CategoryID  string
}

// TransactionFilter holds optional filter parameters for listing transactions.
// Dates are inclusive; a Mode of N/A applies no mode filter.
type TransactionFilter struct {
	Mode     *models.PaymentMode
	DateFrom *string
	DateTo   *string
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	AddTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	// PostTransaction validates and inserts a transaction using the caller's
	// database transaction.
	PostTransaction(tx *gorm.DB, userID string, in TransactionInput) (*models.Transaction, error)
	ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// LoanInput carries the caller-supplied fields of a loan or debt.
type LoanInput struct {
	PersonID  string
	Amount    decimal.Decimal
	Direction models.LoanDirection
	Reason    string
	Date      string
}

// PersonBalance summarizes the pending obligations with one person.
type PersonBalance struct {
	PersonID      string          `json:"person_id"`
	PersonName    string          `json:"person_name"`
	TotalLent     decimal.Decimal `json:"total_lent"`
	TotalBorrowed decimal.Decimal `json:"total_borrowed"`
	Net           decimal.Decimal `json:"net" gorm:"-"`
	PendingCount  int64           `json:"pending_count"`
}

// LoanServicer defines the contract for the loan and debt ledger.
type LoanServicer interface {
	AddPerson(userID, name string) (*models.Person, error)
	ListPersons(userID string) ([]models.Person, error)
	GetPersonByID(userID, personID string) (*models.Person, error)
	AddLoanDebt(userID string, in LoanInput) (*models.LoanDebt, error)
	ListPendingByPerson(userID string) ([]PersonBalance, error)
	ListPersonEntries(userID, personID string, status *models.LoanStatus) ([]models.LoanDebt, error)
	SettleLoanDebt(userID, loanID, date string) (*models.LoanDebt, error)
	// SettleWithDB moves a pending record to settled inside tx.
	SettleWithDB(tx *gorm.DB, userID, loanID, date string) error
	ListPendingPostings(userID string) ([]models.PendingPosting, error)
	RetryPendingPostings(userID string) (int, error)
}

// SettlementServicer defines the contract for the settlement engine.
type SettlementServicer interface {
	Preview(userID string, req SettlementRequest) (*SettlementPlan, error)
	Settle(userID string, req SettlementRequest) (*SettlementResult, error)
}

// AnalyticsServicer defines the contract for dashboard and report queries.
type AnalyticsServicer interface {
	Dashboard(userID string) (*DashboardSummary, error)
	ModeBreakdown(userID string) ([]ModeTotals, error)
	CategoryBreakdown(userID string) ([]CategoryTotal, error)
	DailySpend(userID, from, to string) ([]SpendPoint, error)
	MonthlySpend(userID, from string) ([]SpendPoint, error)
	LoanTotals(userID string) (*LoanTotals, error)
	SpendHistory(userID string, frame TimeFrame) (*SpendHistory, error)
	Overview(ctx context.Context, userID string) (*Overview, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
