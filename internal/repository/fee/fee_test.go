package fee

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/dbtest"
	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

func insertOrder(ctx context.Context, t *testing.T, pool *pgxpool.Pool, businessID, status, total string, at time.Time) {
	t.Helper()
	customerID := dbtest.InsertUser(ctx, t, pool, "client")
	var checkoutID string
	if err := pool.QueryRow(ctx, `INSERT INTO checkouts (customer_id, idempotency_key, payment_method) VALUES ($1, gen_random_uuid()::text, 'cash_on_delivery') RETURNING id::text`, customerID).Scan(&checkoutID); err != nil {
		t.Fatalf("insert checkout: %v", err)
	}
	_, err := pool.Exec(ctx, `
INSERT INTO orders (checkout_id, customer_id, business_id, business_name, total_amount, status, created_at)
VALUES ($1, $2, $3, 'Shop', $4, $5, $6)`, checkoutID, customerID, businessID, total, status, at)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func TestPostgres_RefreshComputesFeeAndKeepsPayment(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	businessID := dbtest.InsertBusiness(ctx, t, pool, "Shop")
	period := domain.MonthPeriod(2025, time.March)
	inside := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	insertOrder(ctx, t, pool, businessID, "completed", "100.00", inside)
	insertOrder(ctx, t, pool, businessID, "completed", "200.00", inside)
	insertOrder(ctx, t, pool, businessID, "pending", "999.00", inside)
	insertOrder(ctx, t, pool, businessID, "completed", "500.00", period.End)

	repo := NewPostgres(pool, nil)
	ledger, err := repo.Refresh(ctx, businessID, period)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if ledger.TotalRevenue.StringFixed(2) != "300.00" || ledger.AdminFeeAmount.StringFixed(2) != "15.00" {
		t.Fatalf("unexpected ledger %+v", ledger)
	}
	if ledger.BusinessName != "Shop" || ledger.IsPaid {
		t.Fatalf("unexpected ledger %+v", ledger)
	}

	paidAt := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)
	if _, err := repo.MarkPaid(ctx, businessID, period, "bank_transfer", paidAt); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	insertOrder(ctx, t, pool, businessID, "delivered", "100.00", inside)
	ledger, err = repo.Refresh(ctx, businessID, period)
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if ledger.AdminFeeAmount.StringFixed(2) != "20.00" {
		t.Fatalf("expected fee 20.00 after delivered order, got %s", ledger.AdminFeeAmount)
	}
	if !ledger.IsPaid || ledger.PaymentMethod == nil || *ledger.PaymentMethod != "bank_transfer" {
		t.Fatalf("expected payment fields preserved, got %+v", ledger)
	}

	list, err := repo.ListForPeriod(ctx, period)
	if err != nil {
		t.Fatalf("ListForPeriod: %v", err)
	}
	if len(list) != 1 || list[0].ID != ledger.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}
