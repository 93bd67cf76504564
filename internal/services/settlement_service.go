package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
	"hisaab/internal/money"
)

// SettlementRequest is either a SelectionSettlement or a ManualSettlement.
type SettlementRequest interface {
	settlementPersonID() string
}

// SelectionSettlement closes the chosen pending records of one person and
// posts their net as a single transaction.
type SelectionSettlement struct {
	PersonID string
	LoanIDs  []string
}

// ManualSettlement posts a payment to or from a person without closing any
// record.
type ManualSettlement struct {
	PersonID string
	Amount   decimal.Decimal
	Reason   string
}

func (r SelectionSettlement) settlementPersonID() string { return r.PersonID }
func (r ManualSettlement) settlementPersonID() string    { return r.PersonID }

// SettlementPlan describes what a settlement will write.
type SettlementPlan struct {
	PersonID     string                 `json:"person_id"`
	PersonName   string                 `json:"person_name"`
	Kind         models.TransactionKind `json:"kind"`
	Amount       decimal.Decimal        `json:"amount"`
	Received     decimal.Decimal        `json:"received"`
	Paid         decimal.Decimal        `json:"paid"`
	Description  string                 `json:"description"`
	Date         string                 `json:"date"`
	CategoryID   string                 `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	LoanIDs      []string               `json:"loan_ids"`
	Summary      string                 `json:"summary"`
}

// SettlementResult is the outcome of a committed settlement.
type SettlementResult struct {
	Plan        SettlementPlan      `json:"plan"`
	Transaction *models.Transaction `json:"transaction"`
}

// settlementService reconciles obligations with a person. Settling records
// and posting the reconciling transaction happen in one database transaction.
type settlementService struct {
	db                 *gorm.DB
	categoryService    CategoryServicer
	transactionService TransactionServicer
	loanService        LoanServicer
	auditService       AuditServicer
	currency           string
	now                func() time.Time
}

// NewSettlementService creates a new SettlementServicer. currency is the ISO
// code used in confirmation summaries.
func NewSettlementService(
	db *gorm.DB,
	categoryService CategoryServicer,
	transactionService TransactionServicer,
	loanService LoanServicer,
	auditService AuditServicer,
	currency string,
) SettlementServicer {
	return &settlementService{
		db:                 db,
		categoryService:    categoryService,
		transactionService: transactionService,
		loanService:        loanService,
		auditService:       auditService,
		currency:           currency,
		now:                time.Now,
	}
}

// Preview computes the settlement without writing anything.
func (s *settlementService) Preview(userID string, req SettlementRequest) (*SettlementPlan, error) {
	return s.plan(s.db, userID, req)
}

// Settle computes and applies the settlement atomically.
func (s *settlementService) Settle(userID string, req SettlementRequest) (*SettlementResult, error) {
	var result SettlementResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		plan, err := s.plan(tx, userID, req)
		if err != nil {
			return err
		}

		for _, loanID := range plan.LoanIDs {
			if err := s.loanService.SettleWithDB(tx, userID, loanID, plan.Date); err != nil {
				return err
			}
		}

		txn, err := s.transactionService.PostTransaction(tx, userID, TransactionInput{
			Date:        plan.Date,
			Mode:        models.PaymentModeUPI,
			Description: plan.Description,
			Amount:      plan.Amount,
			Kind:        plan.Kind,
			CategoryID:  plan.CategoryID,
		})
		if err != nil {
			return err
		}

		result = SettlementResult{Plan: *plan, Transaction: txn}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.auditService.Log(userID, AuditSettle, "person", result.Plan.PersonID, "", map[string]interface{}{
		"kind":           result.Plan.Kind,
		"amount":         result.Plan.Amount,
		"loan_ids":       result.Plan.LoanIDs,
		"transaction_id": result.Transaction.ID,
	})
	return &result, nil
}

func (s *settlementService) plan(db *gorm.DB, userID string, req SettlementRequest) (*SettlementPlan, error) {
	if req == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "settlement request is required")
	}

	person, err := findPerson(db, userID, req.settlementPersonID())
	if err != nil {
		return nil, err
	}

	plan := &SettlementPlan{
		PersonID:   person.ID,
		PersonName: person.Name,
		Date:       models.FormatDate(s.now()),
		LoanIDs:    []string{},
	}

	switch r := req.(type) {
	case SelectionSettlement:
		if err := s.planSelection(db, userID, person, r, plan); err != nil {
			return nil, err
		}
	case ManualSettlement:
		if err := s.planManual(db, userID, person, r, plan); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown settlement request")
	}

	category, err := s.categoryService.ResolveSettlementCategory(db, plan.Kind)
	if err != nil {
		return nil, err
	}
	plan.CategoryID = category.ID
	plan.CategoryName = category.Name
	plan.Summary = settlementSummary(plan, s.currency)

	return plan, nil
}

func (s *settlementService) planSelection(db *gorm.DB, userID string, person *models.Person, r SelectionSettlement, plan *SettlementPlan) error {
	ids := uniqueIDs(r.LoanIDs)
	if len(ids) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "select at least one record to settle")
	}

	var loans []models.LoanDebt
	if err := db.Where("id IN ? AND user_id = ?", ids, userID).Find(&loans).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(loans) != len(ids) {
		return apperrors.ErrLoanNotFound
	}

	received := decimal.Zero
	paid := decimal.Zero
	for _, loan := range loans {
		if loan.PersonID != person.ID {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "record "+loan.ID+" belongs to another person")
		}
		if loan.Status != models.LoanStatusPending {
			return apperrors.ErrLoanAlreadySettled
		}
		switch loan.Direction {
		case models.LoanDirectionLent:
			received = received.Add(loan.Amount)
		case models.LoanDirectionBorrowed:
			paid = paid.Add(loan.Amount)
		}
	}

	// Amounts stay exact so the posting matches the records it closes.
	net := received.Sub(paid)
	if net.IsZero() {
		return apperrors.WithMessage(apperrors.ErrNothingToSettle, "selected records cancel out, nothing to settle")
	}

	plan.Received = received
	plan.Paid = paid
	plan.Kind = models.TransactionKindIncome
	if net.IsNegative() {
		plan.Kind = models.TransactionKindExpense
	}
	plan.Amount = net.Abs()
	plan.Description = "Settlement with " + person.Name
	plan.LoanIDs = ids
	return nil
}

func (s *settlementService) planManual(db *gorm.DB, userID string, person *models.Person, r ManualSettlement, plan *SettlementPlan) error {
	if !r.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	totals, err := pendingTotals(db.Where("person_id = ?", person.ID), userID)
	if err != nil {
		return err
	}

	// A positive net means the person owes the user, so money comes in.
	plan.Kind = models.TransactionKindExpense
	if totals.TotalLent.GreaterThan(totals.TotalBorrowed) {
		plan.Kind = models.TransactionKindIncome
	}

	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		reason = "Partial settlement"
	}
	plan.Amount = r.Amount
	plan.Description = reason + " with " + person.Name
	if plan.Kind == models.TransactionKindIncome {
		plan.Received = plan.Amount
	} else {
		plan.Paid = plan.Amount
	}
	return nil
}

func settlementSummary(plan *SettlementPlan, currency string) string {
	flow := "paid"
	if plan.Kind == models.TransactionKindIncome {
		flow = "received"
	}
	return fmt.Sprintf("Settlement of %s as %s (%s) with %s",
		money.Format(plan.Amount, currency), plan.Kind, flow, plan.PersonName)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
