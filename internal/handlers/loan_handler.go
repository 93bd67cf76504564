package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
	"hisaab/internal/services"
)

// LoanHandler handles people, loans and debts.
type LoanHandler struct {
	loanService  services.LoanServicer
	auditService services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, auditService: auditService}
}

// CreatePersonRequest represents the request payload for adding a person
type CreatePersonRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateLoanRequest represents the request payload for recording a loan or debt.
// Date defaults to today.
type CreateLoanRequest struct {
	PersonID  string               `json:"person_id" binding:"required,uuid"`
	Amount    decimal.Decimal      `json:"amount" binding:"required,gt=0" swaggertype:"number"`
	Direction models.LoanDirection `json:"direction" binding:"required,loan_direction"`
	Reason    string               `json:"reason" binding:"max=500"`
	Date      string               `json:"date" binding:"omitempty,iso_date"`
}

// SettleLoanRequest represents the optional body of a single-record settlement.
type SettleLoanRequest struct {
	Date string `json:"date" binding:"omitempty,iso_date"`
}

// CreatePerson handles adding a person. Adding an existing name returns the
// existing person.
// @Summary     Add a person
// @Tags        persons
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePersonRequest true "Person details"
// @Success     201 {object} models.Person "Person"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /persons [post]
func (h *LoanHandler) CreatePerson(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	person, err := h.loanService.AddPerson(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"person": person})
}

// ListPersons handles listing the user's people
// @Summary     List persons
// @Tags        persons
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Person "Persons in name order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /persons [get]
func (h *LoanHandler) ListPersons(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	persons, err := h.loanService.ListPersons(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"persons": persons})
}

// ListPersonEntries handles listing one person's loans and debts
// @Summary     List a person's loans and debts
// @Tags        persons
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Person ID"
// @Param       status query string false "pending or settled"
// @Success     200 {array} models.LoanDebt "Entries, newest first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Person not found"
// @Router      /persons/{id}/loans [get]
func (h *LoanHandler) ListPersonEntries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	personID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var status *models.LoanStatus
	if v := c.Query("status"); v != "" {
		s := models.LoanStatus(v)
		if !s.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be pending or settled"))
			return
		}
		status = &s
	}

	entries, err := h.loanService.ListPersonEntries(userID, personID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": nonNil(entries)})
}

// CreateLoan handles recording a loan or debt. Money lent is also posted to
// the transaction ledger as an expense.
// @Summary     Record a loan or debt
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan details"
// @Success     201 {object} models.LoanDebt "Pending loan or debt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Person not found"
// @Router      /loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	loan, err := h.loanService.AddLoanDebt(userID, services.LoanInput{
		PersonID:  req.PersonID,
		Amount:    req.Amount,
		Direction: req.Direction,
		Reason:    req.Reason,
		Date:      req.Date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateLoan, "loan_debt", loan.ID, c.ClientIP(),
		map[string]interface{}{"person_id": req.PersonID, "direction": req.Direction, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// ListPending handles the per-person summary of pending obligations
// @Summary     Pending balances per person
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.PersonBalance "Balances in name order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /loans/pending [get]
func (h *LoanHandler) ListPending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.loanService.ListPendingByPerson(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": nonNil(balances)})
}

// SettleLoan handles settling one record without posting a transaction
// @Summary     Settle a loan or debt
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true  "Loan ID"
// @Param       request body SettleLoanRequest false "Settlement date"
// @Success     200 {object} models.LoanDebt "Settled record"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Already settled"
// @Router      /loans/{id}/settle [post]
func (h *LoanHandler) SettleLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SettleLoanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	loan, err := h.loanService.SettleLoanDebt(userID, loanID, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// ListPendingPostings handles listing loan postings that failed to mirror
// @Summary     Unresolved loan postings
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.PendingPosting "Pending postings"
// @Router      /loans/postings [get]
func (h *LoanHandler) ListPendingPostings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	postings, err := h.loanService.ListPendingPostings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"postings": postings})
}

// RetryPendingPostings handles retrying failed loan postings
// @Summary     Retry loan postings
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int "Number of postings resolved"
// @Router      /loans/postings/retry [post]
func (h *LoanHandler) RetryPendingPostings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resolved, err := h.loanService.RetryPendingPostings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": resolved})
}
