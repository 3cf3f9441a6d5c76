package fee

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const ledgerColumns = `f.id::text, f.business_id::text, b.name, f.period_start, f.period_end, f.total_revenue::text, f.admin_fee_amount::text, f.is_paid, f.paid_date, f.payment_method, f.updated_at`

func eligibleStatuses() []string {
	out := make([]string, 0, len(domain.FeeEligibleStatuses))
	for _, s := range domain.FeeEligibleStatuses {
		out = append(out, string(s))
	}
	return out
}

func (r *postgresRepo) Revenue(ctx context.Context, businessID string, p domain.Period) (decimal.Decimal, error) {
	const q = `
SELECT COALESCE(SUM(total_amount), 0)::text
FROM orders
WHERE business_id = $1
  AND status = ANY($2)
  AND created_at >= $3
  AND created_at < $4
`
	var revenue decimal.Decimal
	if err := r.pool.QueryRow(ctx, q, businessID, eligibleStatuses(), p.Start, p.End).Scan(&revenue); err != nil {
		r.logger.Printf("fee repo: revenue business_id=%s error=%v", businessID, err)
		return decimal.Zero, err
	}
	return revenue, nil
}

func (r *postgresRepo) Refresh(ctx context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error) {
	revenue, err := r.Revenue(ctx, businessID, p)
	if err != nil {
		return nil, err
	}
	fee := domain.AdminFee(revenue)

	const q = `
WITH f AS (
    INSERT INTO business_admin_fee_payments (business_id, period_start, period_end, total_revenue, admin_fee_amount)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (business_id, period_start, period_end) DO UPDATE
    SET total_revenue = EXCLUDED.total_revenue,
        admin_fee_amount = EXCLUDED.admin_fee_amount,
        updated_at = now()
    RETURNING *
)
SELECT ` + ledgerColumns + `
FROM f
JOIN businesses b ON b.id = f.business_id
`
	row, err := scanLedger(r.pool.QueryRow(ctx, q, businessID, p.Start, p.End, revenue.String(), fee.String()))
	if err != nil {
		r.logger.Printf("fee repo: refresh business_id=%s error=%v", businessID, err)
		return nil, err
	}
	r.logger.Printf("fee repo: refresh business_id=%s revenue=%s fee=%s", businessID, revenue.StringFixed(2), fee.StringFixed(2))
	return row, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, businessID string, p domain.Period, method string, paidAt time.Time) (*domain.AdminFeePayment, error) {
	if _, err := r.Refresh(ctx, businessID, p); err != nil {
		return nil, err
	}
	const q = `
WITH f AS (
    UPDATE business_admin_fee_payments
    SET is_paid = TRUE, paid_date = $4, payment_method = $5, updated_at = now()
    WHERE business_id = $1 AND period_start = $2 AND period_end = $3
    RETURNING *
)
SELECT ` + ledgerColumns + `
FROM f
JOIN businesses b ON b.id = f.business_id
`
	row, err := scanLedger(r.pool.QueryRow(ctx, q, businessID, p.Start, p.End, paidAt, method))
	if err != nil {
		r.logger.Printf("fee repo: mark paid business_id=%s error=%v", businessID, err)
		return nil, err
	}
	r.logger.Printf("fee repo: mark paid business_id=%s method=%s", businessID, method)
	return row, nil
}

func (r *postgresRepo) ListForPeriod(ctx context.Context, p domain.Period) ([]domain.AdminFeePayment, error) {
	const q = `SELECT ` + ledgerColumns + `
FROM business_admin_fee_payments f
JOIN businesses b ON b.id = f.business_id
WHERE f.period_start = $1 AND f.period_end = $2
ORDER BY f.admin_fee_amount DESC, b.name`
	rows, err := r.pool.Query(ctx, q, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminFeePayment
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

func scanLedger(row pgx.Row) (*domain.AdminFeePayment, error) {
	var l domain.AdminFeePayment
	err := row.Scan(
		&l.ID,
		&l.BusinessID,
		&l.BusinessName,
		&l.PeriodStart,
		&l.PeriodEnd,
		&l.TotalRevenue,
		&l.AdminFeeAmount,
		&l.IsPaid,
		&l.PaidDate,
		&l.PaymentMethod,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}
