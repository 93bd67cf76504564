package services

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
)

// TimeFrame selects how far back the spend history reaches.
type TimeFrame string

const (
	TimeFrameMonth    TimeFrame = "1M"
	TimeFrameQuarter  TimeFrame = "3M"
	TimeFrameHalfYear TimeFrame = "6M"
	TimeFrameYear     TimeFrame = "1Y"
)

// Valid reports whether f is a known time frame.
func (f TimeFrame) Valid() bool {
	switch f {
	case TimeFrameMonth, TimeFrameQuarter, TimeFrameHalfYear, TimeFrameYear:
		return true
	}
	return false
}

// Start returns the first day covered by f when the history ends at now.
func (f TimeFrame) Start(now time.Time) time.Time {
	switch f {
	case TimeFrameQuarter:
		return now.AddDate(0, -3, 0)
	case TimeFrameHalfYear:
		return now.AddDate(0, -6, 0)
	case TimeFrameYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// Series granularities.
const (
	GranularityDaily   = "daily"
	GranularityMonthly = "monthly"
)

// SpendHistory is a spend series over a time frame.
type SpendHistory struct {
	Frame       TimeFrame    `json:"frame"`
	Granularity string       `json:"granularity"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []SpendPoint `json:"points"`
}

// FillDailySeries returns one point per day in [from, to], taking totals from
// points and zero for days without activity. Points outside the range are
// dropped.
func FillDailySeries(points []SpendPoint, from, to string) ([]SpendPoint, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}

	totals := make(map[string]decimal.Decimal, len(points))
	for _, p := range points {
		totals[p.Period] = totals[p.Period].Add(p.Total)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	filled := make([]SpendPoint, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := models.FormatDate(d)
		total, ok := totals[day]
		if !ok {
			total = decimal.Zero
		}
		filled = append(filled, SpendPoint{Period: day, Total: total})
	}
	return filled, nil
}
