package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hisaab/internal/services"
)

// Settlement request types.
const (
	settlementSelection = "selection"
	settlementManual    = "manual"
)

// SettlementHandler handles settling up with a person.
type SettlementHandler struct {
	settlementService services.SettlementServicer
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementService services.SettlementServicer) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// SettleRequest represents a settlement. A selection settles LoanIDs and posts
// their net; a manual settlement posts Amount without closing any record.
type SettleRequest struct {
	Type     string           `json:"type" binding:"required,oneof=selection manual"`
	PersonID string           `json:"person_id" binding:"required,uuid"`
	LoanIDs  []string         `json:"loan_ids" binding:"omitempty,dive,uuid"`
	Amount   *decimal.Decimal `json:"amount" swaggertype:"number"`
	Reason   string           `json:"reason" binding:"max=500"`
}

func (r SettleRequest) request() services.SettlementRequest {
	switch r.Type {
	case settlementManual:
		amount := decimal.Zero
		if r.Amount != nil {
			amount = *r.Amount
		}
		return services.ManualSettlement{PersonID: r.PersonID, Amount: amount, Reason: r.Reason}
	case settlementSelection:
		return services.SelectionSettlement{PersonID: r.PersonID, LoanIDs: r.LoanIDs}
	}
	return nil
}

// Preview handles computing a settlement without applying it
// @Summary     Preview a settlement
// @Tags        settlements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SettleRequest true "Settlement"
// @Success     200 {object} services.SettlementPlan "What the settlement would write"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Person or loan not found"
// @Failure     409 {object} ErrorResponse "Loan already settled"
// @Failure     422 {object} ErrorResponse "Nothing to settle"
// @Router      /settlements/preview [post]
func (h *SettlementHandler) Preview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	plan, err := h.settlementService.Preview(userID, req.request())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// Settle handles applying a settlement
// @Summary     Settle with a person
// @Description Settles the selected records and posts the reconciling transaction atomically
// @Tags        settlements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SettleRequest true "Settlement"
// @Success     201 {object} services.SettlementResult "Applied settlement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Person or loan not found"
// @Failure     409 {object} ErrorResponse "Loan already settled"
// @Failure     422 {object} ErrorResponse "Nothing to settle"
// @Router      /settlements [post]
func (h *SettlementHandler) Settle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.settlementService.Settle(userID, req.request())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
