package payment

import (
	"context"
	"errors"
	"io"
	"log"

	"marketplace/internal/db"
	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
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

// Columns is the select list understood by Scan.
const Columns = `id::text, order_id::text, payment_method, amount::text, status, transaction_id, proof_of_payment, card_last_four, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM payments WHERE id = $1`, id))
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return ListForOrders(ctx, r.pool, []string{orderID})
}

func (r *postgresRepo) SetStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (*domain.Payment, error) {
	const q = `
UPDATE payments
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + Columns
	p, err := Scan(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		r.logger.Printf("payment repo: set status id=%s from=%s rejected", id, from)
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		r.logger.Printf("payment repo: set status id=%s error=%v", id, err)
		return nil, err
	}
	r.logger.Printf("payment repo: set status id=%s %s->%s", id, from, to)
	return p, nil
}

// Insert writes p inside the caller's transaction.
func Insert(ctx context.Context, q db.Querier, p domain.Payment) (*domain.Payment, error) {
	const stmt = `
INSERT INTO payments (order_id, payment_method, amount, status, transaction_id, proof_of_payment, card_last_four)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + Columns
	return Scan(q.QueryRow(ctx, stmt,
		p.OrderID,
		string(p.Method),
		p.Amount.String(),
		string(p.Status),
		p.TransactionID,
		p.ProofOfPayment,
		p.CardLastFour,
	))
}

// ListForOrders loads payments of several orders, oldest first.
func ListForOrders(ctx context.Context, q db.Querier, orderIDs []string) ([]domain.Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+Columns+` FROM payments WHERE order_id = ANY($1::uuid[]) ORDER BY created_at ASC`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func Scan(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		method string
		status string
	)
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&method,
		&p.Amount,
		&status,
		&p.TransactionID,
		&p.ProofOfPayment,
		&p.CardLastFour,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
