package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a half-open accounting window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseMonth reads "YYYY-MM"; an empty value means the month containing now.
func ParseMonth(raw string, now time.Time) (Period, error) {
	if raw == "" {
		now = now.UTC()
		return MonthPeriod(now.Year(), now.Month()), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Period{}, Invalid("invalid period %q: expected YYYY-MM", raw)
	}
	return MonthPeriod(t.Year(), t.Month()), nil
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return Invalid("period bounds required")
	}
	if !p.End.After(p.Start) {
		return Invalid("period end must be after start")
	}
	return nil
}

// AdminFeePayment is the per-business, per-period fee ledger. TotalRevenue
// and AdminFeeAmount are refreshed from orders on every read; the payment
// fields are operator-set and kept across refreshes.
type AdminFeePayment struct {
	ID             string
	BusinessID     string
	BusinessName   string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	TotalRevenue   decimal.Decimal
	AdminFeeAmount decimal.Decimal
	IsPaid         bool
	PaidDate       *time.Time
	PaymentMethod  *string
	UpdatedAt      time.Time
}
