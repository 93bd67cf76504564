package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/logger"
	"hisaab/internal/models"
	"hisaab/internal/money"
)

// loanService handles people, loans and debts. Creating a lent record also
// posts a mirrored expense so the money leaving the user's hands shows up in
// the ledger.
type loanService struct {
	db                 *gorm.DB
	categoryService    CategoryServicer
	transactionService TransactionServicer
	auditService       AuditServicer
	now                func() time.Time
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, categoryService CategoryServicer, transactionService TransactionServicer, auditService AuditServicer) LoanServicer {
	return &loanService{
		db:                 db,
		categoryService:    categoryService,
		transactionService: transactionService,
		auditService:       auditService,
		now:                time.Now,
	}
}

// AddPerson returns the person with the given name, creating it if needed.
func (s *loanService) AddPerson(userID, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "person name is required")
	}

	person := &models.Person{UserID: userID, Name: name}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(person)
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected > 0 {
		return person, nil
	}

	var existing models.Person
	if err := s.db.Where("user_id = ? AND name = ?", userID, name).First(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &existing, nil
}

// ListPersons returns the user's counterparties alphabetically.
func (s *loanService) ListPersons(userID string) ([]models.Person, error) {
	var persons []models.Person
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&persons).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return persons, nil
}

// GetPersonByID retrieves a person by ID for a specific user
func (s *loanService) GetPersonByID(userID, personID string) (*models.Person, error) {
	return findPerson(s.db, userID, personID)
}

func findPerson(db *gorm.DB, userID, personID string) (*models.Person, error) {
	var person models.Person
	if err := db.Where("id = ? AND user_id = ?", personID, userID).First(&person).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPersonNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &person, nil
}

// AddLoanDebt records a pending loan or debt. The record itself is written
// atomically; for lent records the mirrored expense is posted afterwards in
// its own transaction, and a failure there is kept in the pending postings
// outbox instead of failing the call.
func (s *loanService) AddLoanDebt(userID string, in LoanInput) (*models.LoanDebt, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Date == "" {
		in.Date = models.FormatDate(s.now())
	}

	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrConstraint, "amount must be greater than zero")
	}
	if !in.Direction.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrConstraint, "direction must be lent or borrowed")
	}
	if !models.ValidDate(in.Date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}

	var (
		loan   *models.LoanDebt
		person *models.Person
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		person, err = findPerson(tx, userID, in.PersonID)
		if err != nil {
			return err
		}

		loan = &models.LoanDebt{
			UserID:      userID,
			PersonID:    person.ID,
			Amount:      in.Amount,
			Direction:   in.Direction,
			Reason:      in.Reason,
			DateCreated: in.Date,
			Status:      models.LoanStatusPending,
		}
		if err := tx.Create(loan).Error; err != nil {
			return writeError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	loan.PersonName = person.Name

	if loan.Direction == models.LoanDirectionLent {
		if err := s.postMirror(loan, person.Name); err != nil {
			s.recordPendingPosting(loan, err)
		}
	}

	return loan, nil
}

// postMirror writes the expense that mirrors a lent record, re-creating the
// Loans & Debts category first if it has gone missing.
func (s *loanService) postMirror(loan *models.LoanDebt, personName string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.postMirrorWithDB(tx, loan, personName)
	})
}

func (s *loanService) postMirrorWithDB(tx *gorm.DB, loan *models.LoanDebt, personName string) error {
	category, err := s.categoryService.EnsureCategory(tx, models.LoansCategoryName, models.ApplicabilityBoth)
	if err != nil {
		return err
	}

	_, err = s.transactionService.PostTransaction(tx, loan.UserID, TransactionInput{
		Date:        loan.DateCreated,
		Mode:        models.PaymentModeNone,
		Description: fmt.Sprintf("Lent to %s (%s)", personName, loan.Reason),
		Amount:      loan.Amount,
		Kind:        models.TransactionKindExpense,
		CategoryID:  category.ID,
	})
	return err
}

func (s *loanService) recordPendingPosting(loan *models.LoanDebt, cause error) {
	log := logger.Named("loans")
	log.Errorw("mirrored posting for lent record failed",
		"error", cause,
		"user_id", loan.UserID,
		"loan_id", loan.ID,
		"amount", loan.Amount.String(),
	)

	posting := &models.PendingPosting{
		UserID:     loan.UserID,
		LoanDebtID: loan.ID,
		LastError:  cause.Error(),
		Attempts:   1,
	}
	if err := s.db.Create(posting).Error; err != nil {
		log.Errorw("failed to record pending posting",
			"error", err,
			"loan_id", loan.ID,
		)
	}
}

// ListPendingPostings returns mirrored postings that have not been written yet.
func (s *loanService) ListPendingPostings(userID string) ([]models.PendingPosting, error) {
	var postings []models.PendingPosting
	if err := s.db.Where("user_id = ? AND resolved_at IS NULL", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&postings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return postings, nil
}

// RetryPendingPostings re-attempts every unresolved mirrored posting of the
// user and returns how many were written.
func (s *loanService) RetryPendingPostings(userID string) (int, error) {
	postings, err := s.ListPendingPostings(userID)
	if err != nil {
		return 0, err
	}

	log := logger.Named("loans")
	resolved := 0
	for i := range postings {
		posting := &postings[i]

		err := s.db.Transaction(func(tx *gorm.DB) error {
			var loan models.LoanDebt
			if err := tx.Where("id = ? AND user_id = ?", posting.LoanDebtID, userID).First(&loan).Error; err != nil {
				return err
			}
			person, err := findPerson(tx, userID, loan.PersonID)
			if err != nil {
				return err
			}
			if err := s.postMirrorWithDB(tx, &loan, person.Name); err != nil {
				return err
			}

			result := tx.Model(&models.PendingPosting{}).
				Where("id = ? AND resolved_at IS NULL", posting.ID).
				Update("resolved_at", s.now())
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return apperrors.ErrPostingNotFound
			}
			return nil
		})
		if err != nil {
			log.Warnw("retry of mirrored posting failed",
				"error", err,
				"posting_id", posting.ID,
				"loan_id", posting.LoanDebtID,
				"attempts", posting.Attempts+1,
			)
			if updErr := s.db.Model(&models.PendingPosting{}).
				Where("id = ?", posting.ID).
				Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": err.Error(),
				}).Error; updErr != nil {
				return resolved, apperrors.Wrap(apperrors.ErrInternalServer, updErr)
			}
			continue
		}
		resolved++
	}

	return resolved, nil
}

// ListPendingByPerson summarizes open obligations per person. People with no
// pending records are left out.
func (s *loanService) ListPendingByPerson(userID string) ([]PersonBalance, error) {
	var balances []PersonBalance
	err := s.db.Table("persons").
		Select(`persons.id AS person_id, persons.name AS person_name,
			COALESCE(SUM(CASE WHEN loans_debts.direction = ? THEN loans_debts.amount ELSE 0 END), 0) AS total_lent,
			COALESCE(SUM(CASE WHEN loans_debts.direction = ? THEN loans_debts.amount ELSE 0 END), 0) AS total_borrowed,
			COUNT(loans_debts.id) AS pending_count`,
			models.LoanDirectionLent, models.LoanDirectionBorrowed).
		Joins("JOIN loans_debts ON loans_debts.person_id = persons.id AND loans_debts.status = ?", models.LoanStatusPending).
		Where("persons.user_id = ?", userID).
		Group("persons.id, persons.name").
		Order("persons.name ASC").
		Scan(&balances).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range balances {
		balances[i].TotalLent = money.Round(balances[i].TotalLent)
		balances[i].TotalBorrowed = money.Round(balances[i].TotalBorrowed)
		balances[i].Net = balances[i].TotalLent.Sub(balances[i].TotalBorrowed)
	}
	return balances, nil
}

// ListPersonEntries returns a person's records, most recently entered first,
// optionally limited to one status.
func (s *loanService) ListPersonEntries(userID, personID string, status *models.LoanStatus) ([]models.LoanDebt, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrConstraint, "status must be pending or settled")
	}

	if _, err := findPerson(s.db, userID, personID); err != nil {
		return nil, err
	}

	q := s.db.Model(&models.LoanDebt{}).
		Select("loans_debts.*, persons.name AS person_name").
		Joins("JOIN persons ON persons.id = loans_debts.person_id").
		Where("loans_debts.user_id = ? AND loans_debts.person_id = ?", userID, personID)
	if status != nil {
		q = q.Where("loans_debts.status = ?", *status)
	}

	var entries []models.LoanDebt
	if err := q.Order("loans_debts.id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

// SettleLoanDebt marks a single pending record as settled on date, which
// defaults to today. No transaction is posted.
func (s *loanService) SettleLoanDebt(userID, loanID, date string) (*models.LoanDebt, error) {
	if date == "" {
		date = models.FormatDate(s.now())
	}
	if !models.ValidDate(date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}

	var loan models.LoanDebt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.SettleWithDB(tx, userID, loanID, date); err != nil {
			return err
		}
		return tx.Where("id = ?", loanID).First(&loan).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.auditService.Log(userID, AuditSettleLoan, "loan_debt", loanID, "", map[string]interface{}{
		"amount":       loan.Amount,
		"direction":    loan.Direction,
		"date_settled": date,
	})
	return &loan, nil
}

func (s *loanService) SettleWithDB(tx *gorm.DB, userID, loanID, date string) error {
	result := tx.Model(&models.LoanDebt{}).
		Where("id = ? AND user_id = ? AND status = ?", loanID, userID, models.LoanStatusPending).
		Updates(map[string]interface{}{
			"status":       models.LoanStatusSettled,
			"date_settled": date,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.LoanDebt{}).Where("id = ? AND user_id = ?", loanID, userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrLoanNotFound
	}
	return apperrors.ErrLoanAlreadySettled
}
