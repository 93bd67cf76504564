package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hisaab/internal/services"
)

// AnalyticsHandler serves dashboard and report queries. Spending views leave
// out the Loans & Debts category.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// DailySpendQuery holds the range of a daily spend query.
type DailySpendQuery struct {
	From string `form:"from" binding:"required,iso_date"`
	To   string `form:"to" binding:"required,iso_date"`
}

// MonthlySpendQuery holds the start of a monthly spend query.
type MonthlySpendQuery struct {
	From string `form:"from" binding:"required,iso_date"`
}

// Dashboard handles the headline figures
// @Summary     Dashboard summary
// @Description All-time balance plus this month's income and expense
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardSummary
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.Dashboard(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ModeBreakdown handles this month's totals per payment mode
// @Summary     Totals per payment mode
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.ModeTotals
// @Router      /analytics/modes [get]
func (h *AnalyticsHandler) ModeBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.analyticsService.ModeBreakdown(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"modes": nonNil(rows)})
}

// CategoryBreakdown handles this month's totals per category
// @Summary     Totals per category
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.CategoryTotal
// @Router      /analytics/categories [get]
func (h *AnalyticsHandler) CategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.analyticsService.CategoryBreakdown(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": nonNil(rows)})
}

// DailySpend handles expense totals per day
// @Summary     Daily spend
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Start date (YYYY-MM-DD, inclusive)"
// @Param       to   query string true "End date (YYYY-MM-DD, inclusive)"
// @Success     200 {array} services.SpendPoint
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analytics/spend/daily [get]
func (h *AnalyticsHandler) DailySpend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q DailySpendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	points, err := h.analyticsService.DailySpend(userID, q.From, q.To)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": nonNil(points)})
}

// MonthlySpend handles expense totals per month
// @Summary     Monthly spend
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Start date (YYYY-MM-DD, inclusive)"
// @Success     200 {array} services.SpendPoint
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analytics/spend/monthly [get]
func (h *AnalyticsHandler) MonthlySpend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q MonthlySpendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	points, err := h.analyticsService.MonthlySpend(userID, q.From)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": nonNil(points)})
}

// SpendHistory handles the spend chart for a time frame
// @Summary     Spend history
// @Description Daily series for 1M, monthly totals for 3M, 6M and 1Y
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       frame query string false "1M, 3M, 6M or 1Y (default 1M)"
// @Success     200 {object} services.SpendHistory
// @Failure     400 {object} ErrorResponse "Invalid time frame"
// @Router      /analytics/spend [get]
func (h *AnalyticsHandler) SpendHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	frame := services.TimeFrame(c.DefaultQuery("frame", string(services.TimeFrameMonth)))
	history, err := h.analyticsService.SpendHistory(userID, frame)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// LoanTotals handles the pending loan and debt totals
// @Summary     Pending loan totals
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LoanTotals
// @Router      /analytics/loans [get]
func (h *AnalyticsHandler) LoanTotals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.analyticsService.LoanTotals(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

// Overview handles every dashboard view in one response
// @Summary     Dashboard overview
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Overview
// @Router      /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.analyticsService.Overview(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// nonNil renders empty results as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
