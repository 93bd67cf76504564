package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
	"hisaab/internal/money"
)

// DashboardSummary holds the headline figures of the dashboard.
type DashboardSummary struct {
	Month          string          `json:"month"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"`
	MonthlyExpense decimal.Decimal `json:"monthly_expense"`
}

// ModeTotals is the income and expense moved through one payment mode.
type ModeTotals struct {
	Mode    models.PaymentMode `json:"mode"`
	Income  decimal.Decimal    `json:"income"`
	Expense decimal.Decimal    `json:"expense"`
}

// CategoryTotal is the sum of one kind of transaction in one category.
type CategoryTotal struct {
	CategoryID   string                 `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	Kind         models.TransactionKind `json:"kind"`
	Total        decimal.Decimal        `json:"total"`
}

// SpendPoint is the expense total of one day (YYYY-MM-DD) or month (YYYY-MM).
type SpendPoint struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// LoanTotals sums the pending obligations in each direction.
type LoanTotals struct {
	TotalLent     decimal.Decimal `json:"total_lent"`
	TotalBorrowed decimal.Decimal `json:"total_borrowed"`
}

// Overview bundles every dashboard view.
type Overview struct {
	Dashboard  *DashboardSummary `json:"dashboard"`
	Loans      *LoanTotals       `json:"loans"`
	Modes      []ModeTotals      `json:"modes"`
	Categories []CategoryTotal   `json:"categories"`
}

type kindTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// analyticsService answers read-only report queries. Spending and earning
// views leave out the Loans & Debts category; the all-time balance does not.
type analyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db, now: time.Now}
}

func (s *analyticsService) transactions(userID string) *gorm.DB {
	return s.db.Model(&models.Transaction{}).Where("transactions.user_id = ?", userID)
}

func excludeLoans(q *gorm.DB) *gorm.DB {
	return q.Where("transactions.category_id NOT IN (SELECT id FROM categories WHERE name_key = ?)",
		models.CategoryKey(models.LoansCategoryName))
}

// currentMonth returns the first day of this month and of the next one.
func (s *analyticsService) currentMonth() (string, string) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return models.FormatDate(start), models.FormatDate(start.AddDate(0, 1, 0))
}

func inMonth(q *gorm.DB, start, next string) *gorm.DB {
	return q.Where("transactions.date >= ? AND transactions.date < ?", start, next)
}

func sumByKind(q *gorm.DB) (*kindTotals, error) {
	var totals kindTotals
	err := q.Select(`COALESCE(SUM(CASE WHEN transactions.kind = ? THEN transactions.amount ELSE 0 END), 0) AS income,
		COALESCE(SUM(CASE WHEN transactions.kind = ? THEN transactions.amount ELSE 0 END), 0) AS expense`,
		models.TransactionKindIncome, models.TransactionKindExpense).
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totals.Income = money.Round(totals.Income)
	totals.Expense = money.Round(totals.Expense)
	return &totals, nil
}

// Dashboard returns the all-time balance and this month's income and expense.
func (s *analyticsService) Dashboard(userID string) (*DashboardSummary, error) {
	allTime, err := sumByKind(s.transactions(userID))
	if err != nil {
		return nil, err
	}

	start, next := s.currentMonth()
	month, err := sumByKind(excludeLoans(inMonth(s.transactions(userID), start, next)))
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		Month:          start[:7],
		TotalBalance:   allTime.Income.Sub(allTime.Expense),
		MonthlyIncome:  month.Income,
		MonthlyExpense: month.Expense,
	}, nil
}

// ModeBreakdown returns this month's totals per payment mode, N/A excluded.
func (s *analyticsService) ModeBreakdown(userID string) ([]ModeTotals, error) {
	start, next := s.currentMonth()

	var rows []ModeTotals
	err := excludeLoans(inMonth(s.transactions(userID), start, next)).
		Select(`transactions.mode AS mode,
			COALESCE(SUM(CASE WHEN transactions.kind = ? THEN transactions.amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN transactions.kind = ? THEN transactions.amount ELSE 0 END), 0) AS expense`,
			models.TransactionKindIncome, models.TransactionKindExpense).
		Where("transactions.mode <> ?", models.PaymentModeNone).
		Group("transactions.mode").
		Order("transactions.mode ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range rows {
		rows[i].Income = money.Round(rows[i].Income)
		rows[i].Expense = money.Round(rows[i].Expense)
	}
	return rows, nil
}

// CategoryBreakdown returns this month's totals per category and kind.
func (s *analyticsService) CategoryBreakdown(userID string) ([]CategoryTotal, error) {
	start, next := s.currentMonth()

	var rows []CategoryTotal
	err := excludeLoans(inMonth(s.transactions(userID), start, next)).
		Select(`transactions.category_id AS category_id, categories.name AS category_name,
			transactions.kind AS kind, SUM(transactions.amount) AS total`).
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Group("transactions.category_id, categories.name, transactions.kind").
		Order("transactions.kind ASC").
		Order("total DESC").
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range rows {
		rows[i].Total = money.Round(rows[i].Total)
	}
	return rows, nil
}

// DailySpend returns expense totals for each day in [from, to] that had any.
func (s *analyticsService) DailySpend(userID, from, to string) ([]SpendPoint, error) {
	if !models.ValidDate(from) || !models.ValidDate(to) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}

	var points []SpendPoint
	err := excludeLoans(s.transactions(userID)).
		Select("transactions.date AS period, SUM(transactions.amount) AS total").
		Where("transactions.kind = ?", models.TransactionKindExpense).
		Where("transactions.date >= ? AND transactions.date <= ?", from, to).
		Group("transactions.date").
		Order("transactions.date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return roundPoints(points), nil
}

// MonthlySpend returns expense totals per month from the given day on,
// most recent month first.
func (s *analyticsService) MonthlySpend(userID, from string) ([]SpendPoint, error) {
	if !models.ValidDate(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}

	var points []SpendPoint
	err := excludeLoans(s.transactions(userID)).
		Select("substr(transactions.date, 1, 7) AS period, SUM(transactions.amount) AS total").
		Where("transactions.kind = ?", models.TransactionKindExpense).
		Where("transactions.date >= ?", from).
		Group("substr(transactions.date, 1, 7)").
		Order("period DESC").
		Scan(&points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return roundPoints(points), nil
}

// LoanTotals sums the user's pending loans and debts.
func (s *analyticsService) LoanTotals(userID string) (*LoanTotals, error) {
	return pendingTotals(s.db, userID)
}

func pendingTotals(db *gorm.DB, userID string) (*LoanTotals, error) {
	var totals LoanTotals
	err := db.Model(&models.LoanDebt{}).
		Select(`COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS total_lent,
			COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS total_borrowed`,
			models.LoanDirectionLent, models.LoanDirectionBorrowed).
		Where("user_id = ? AND status = ?", userID, models.LoanStatusPending).
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totals.TotalLent = money.Round(totals.TotalLent)
	totals.TotalBorrowed = money.Round(totals.TotalBorrowed)
	return &totals, nil
}

// SpendHistory returns the spend chart for a time frame: a gap-free daily
// series for one month, monthly totals otherwise.
func (s *analyticsService) SpendHistory(userID string, frame TimeFrame) (*SpendHistory, error) {
	if !frame.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "time frame must be one of 1M, 3M, 6M or 1Y")
	}

	now := s.now()
	from := models.FormatDate(frame.Start(now))
	to := models.FormatDate(now)

	history := &SpendHistory{Frame: frame, From: from, To: to}
	if frame == TimeFrameMonth {
		points, err := s.DailySpend(userID, from, to)
		if err != nil {
			return nil, err
		}
		history.Granularity = GranularityDaily
		history.Points, err = FillDailySeries(points, from, to)
		if err != nil {
			return nil, err
		}
		return history, nil
	}

	points, err := s.MonthlySpend(userID, from)
	if err != nil {
		return nil, err
	}
	history.Granularity = GranularityMonthly
	history.Points = points
	return history, nil
}

// Overview gathers the dashboard, loan totals and both breakdowns
// concurrently. The first failure cancels the remaining queries.
func (s *analyticsService) Overview(ctx context.Context, userID string) (*Overview, error) {
	g, gctx := errgroup.WithContext(ctx)

	at := s.now()
	scoped := &analyticsService{
		db:  s.db.WithContext(gctx),
		now: func() time.Time { return at },
	}

	var ov Overview
	g.Go(func() error {
		d, err := scoped.Dashboard(userID)
		ov.Dashboard = d
		return err
	})
	g.Go(func() error {
		l, err := scoped.LoanTotals(userID)
		ov.Loans = l
		return err
	})
	g.Go(func() error {
		m, err := scoped.ModeBreakdown(userID)
		ov.Modes = m
		return err
	})
	g.Go(func() error {
		c, err := scoped.CategoryBreakdown(userID)
		ov.Categories = c
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

func roundPoints(points []SpendPoint) []SpendPoint {
	for i := range points {
		points[i].Total = money.Round(points[i].Total)
	}
	return points
}
