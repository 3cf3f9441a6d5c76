package fee

import (
	"context"
	"time"

	"marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Revenue sums fee-eligible order totals for a business in period.
	Revenue(ctx context.Context, businessID string, p domain.Period) (decimal.Decimal, error)
	// Refresh recomputes revenue and fee for the ledger row, creating it on
	// first use. Payment fields set by an operator are left untouched.
	Refresh(ctx context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error)
	MarkPaid(ctx context.Context, businessID string, p domain.Period, method string, paidAt time.Time) (*domain.AdminFeePayment, error)
	ListForPeriod(ctx context.Context, p domain.Period) ([]domain.AdminFeePayment, error)
}
