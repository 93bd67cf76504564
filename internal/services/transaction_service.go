package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
	"hisaab/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, auditService AuditServicer) TransactionServicer {
	return &transactionService{
		db:           db,
		auditService: auditService,
	}
}

// AddTransaction records a new income or expense entry
func (s *transactionService) AddTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.createTransactionWithDB(tx, userID, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *transactionService) PostTransaction(tx *gorm.DB, userID string, in TransactionInput) (*models.Transaction, error) {
	return s.createTransactionWithDB(tx, userID, in)
}

// createTransactionWithDB creates a transaction with a given database connection (useful for transactions)
func (s *transactionService) createTransactionWithDB(tx *gorm.DB, userID string, in TransactionInput) (*models.Transaction, error) {
	in, err := normalizeTransactionInput(in)
	if err != nil {
		return nil, err
	}

	category, err := findCategory(tx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.Applicability != models.ApplicabilityBoth && category.Applicability != in.Kind.Applicability() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category "+category.Name+" does not apply to "+string(in.Kind))
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Date:        in.Date,
		Mode:        in.Mode,
		Description: in.Description,
		Amount:      in.Amount,
		Kind:        in.Kind,
		CategoryID:  category.ID,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, writeError(err)
	}
	transaction.CategoryName = category.Name

	return transaction, nil
}

// normalizeTransactionInput checks the closed variants and the positive
// amount before anything reaches the store. Income without a mode is filed
// under N/A.
func normalizeTransactionInput(in TransactionInput) (TransactionInput, error) {
	in.Description = strings.TrimSpace(in.Description)

	if !in.Amount.IsPositive() {
		return in, apperrors.WithMessage(apperrors.ErrConstraint, "amount must be greater than zero")
	}
	if !in.Kind.Valid() {
		return in, apperrors.WithMessage(apperrors.ErrConstraint, "kind must be income or expense")
	}
	if in.Mode == "" && in.Kind == models.TransactionKindIncome {
		in.Mode = models.PaymentModeNone
	}
	if !in.Mode.Valid() {
		return in, apperrors.WithMessage(apperrors.ErrConstraint, "mode must be one of CC, UPI, Cash, Debit or N/A")
	}
	if !models.ValidDate(in.Date) {
		return in, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}
	if in.CategoryID == "" {
		return in, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	return in, nil
}

// ListTransactions returns the user's transactions, newest first, joined with
// their category names.
func (s *transactionService) ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	if err := validateTransactionFilter(filter); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := withCategoryName(applyTransactionFilters(s.userTransactions(userID), filter)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetUserTransactions retrieves a paginated, filtered list of transactions for a user.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if err := validateTransactionFilter(filter); err != nil {
		return nil, err
	}

	page.Defaults()

	base := applyTransactionFilters(s.userTransactions(userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := withCategoryName(applyTransactionFilters(s.userTransactions(userID), filter)).
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

func (s *transactionService) userTransactions(userID string) *gorm.DB {
	return s.db.Model(&models.Transaction{}).Where("transactions.user_id = ?", userID)
}

func withCategoryName(q *gorm.DB) *gorm.DB {
	return q.Select("transactions.*, categories.name AS category_name").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Order("transactions.date DESC").
		Order("transactions.id DESC")
}

func validateTransactionFilter(f TransactionFilter) error {
	if f.Mode != nil && !f.Mode.Valid() {
		return apperrors.WithMessage(apperrors.ErrConstraint, "mode must be one of CC, UPI, Cash, Debit or N/A")
	}
	for _, d := range []*string{f.DateFrom, f.DateTo} {
		if d != nil && !models.ValidDate(*d) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
		}
	}
	return nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Mode != nil && *f.Mode != models.PaymentModeNone {
		q = q.Where("transactions.mode = ?", *f.Mode)
	}
	if f.DateFrom != nil {
		q = q.Where("transactions.date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("transactions.date <= ?", *f.DateTo)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := withCategoryName(s.userTransactions(userID)).
		Where("transactions.id = ?", transactionID).
		Take(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces the editable fields of a transaction. Loan
// records that produced the entry are left untouched.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	existing, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	in, err = normalizeTransactionInput(in)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, in.CategoryID)
		if err != nil {
			return err
		}
		if category.Applicability != models.ApplicabilityBoth && category.Applicability != in.Kind.Applicability() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "category "+category.Name+" does not apply to "+string(in.Kind))
		}

		updates := map[string]interface{}{
			"date":        in.Date,
			"mode":        in.Mode,
			"description": in.Description,
			"amount":      in.Amount,
			"kind":        in.Kind,
			"category_id": category.ID,
		}
		if err := tx.Model(&models.Transaction{}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			Updates(updates).Error; err != nil {
			return writeError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Log(userID, AuditUpdateTransaction, "transaction", transactionID, "", map[string]interface{}{
		"old_amount": existing.Amount,
		"new_amount": in.Amount,
		"old_kind":   existing.Kind,
		"new_kind":   in.Kind,
	})

	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction removes a transaction. Loan records are not touched.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	result := s.db.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	s.auditService.Log(userID, AuditDeleteTransaction, "transaction", transactionID, "", map[string]interface{}{
		"amount":      transaction.Amount,
		"kind":        transaction.Kind,
		"description": transaction.Description,
	})
	return nil
}
