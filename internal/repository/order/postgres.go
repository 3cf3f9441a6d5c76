package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"marketplace/internal/db"
	"marketplace/internal/domain"
	"marketplace/internal/repository/cart"
	"marketplace/internal/repository/payment"

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

const orderColumns = `id::text, checkout_id::text, customer_id::text, business_id::text, business_name, total_amount::text, status, delivery_option, delivery_address, delivery_phone, created_at, updated_at`

func (r *postgresRepo) PlaceOrders(ctx context.Context, in PlaceOrdersInput, settle SettleFunc) ([]domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Concurrent submissions for the same customer queue up here.
	var cartID string
	err = tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE customer_id = $1 FOR UPDATE`, in.CustomerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}

	var checkoutID string
	err = tx.QueryRow(ctx, `
INSERT INTO checkouts (customer_id, idempotency_key, payment_method)
VALUES ($1, $2, $3)
RETURNING id::text
`, in.CustomerID, in.IdempotencyKey, string(in.Method)).Scan(&checkoutID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			r.logger.Printf("order repo: place customer_id=%s key=%s duplicate", in.CustomerID, in.IdempotencyKey)
			return nil, domain.ErrDuplicateCheckout
		}
		return nil, err
	}

	c, err := cart.FetchCart(ctx, tx, `
SELECT id::text, customer_id::text, created_at, updated_at
FROM carts
WHERE id = $1
`, cartID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, domain.ErrEmptyCart
	}

	groups := domain.SplitByBusiness(c.Items)
	orders := make([]domain.Order, 0, len(groups))
	for _, g := range groups {
		o, err := insertOrder(ctx, tx, checkoutID, in, g)
		if err != nil {
			r.logger.Printf("order repo: insert customer_id=%s business_id=%s error=%v", in.CustomerID, g.BusinessID, err)
			return nil, err
		}
		orders = append(orders, *o)
	}

	payments, err := settle(ctx, orders)
	if err != nil {
		return nil, err
	}
	if len(payments) != len(orders) {
		return nil, fmt.Errorf("settle returned %d payments for %d orders", len(payments), len(orders))
	}
	for i := range orders {
		p := payments[i]
		p.OrderID = orders[i].ID
		stored, err := payment.Insert(ctx, tx, p)
		if err != nil {
			r.logger.Printf("order repo: insert payment order_id=%s error=%v", orders[i].ID, err)
			return nil, err
		}
		orders[i].Payments = []domain.Payment{*stored}
	}

	// Items of unavailable products were not ordered and stay in the cart.
	itemIDs := make([]string, len(c.Items))
	for i, item := range c.Items {
		itemIDs[i] = item.ID
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2::uuid[])`, cartID, itemIDs); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: place customer_id=%s checkout_id=%s orders=%d", in.CustomerID, checkoutID, len(orders))
	return orders, nil
}

func (r *postgresRepo) CheckoutExists(ctx context.Context, customerID, idempotencyKey string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM checkouts WHERE customer_id = $1 AND idempotency_key = $2
)`, customerID, idempotencyKey).Scan(&exists)
	if err != nil {
		r.logger.Printf("order repo: checkout exists customer_id=%s error=%v", customerID, err)
		return false, err
	}
	return exists, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, checkoutID string, in PlaceOrdersInput, g domain.BusinessGroup) (*domain.Order, error) {
	const q = `
INSERT INTO orders (checkout_id, customer_id, business_id, business_name, total_amount, status, delivery_option, delivery_address, delivery_phone)
VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8)
RETURNING ` + orderColumns
	o, err := scanOrder(tx.QueryRow(ctx, q,
		checkoutID,
		in.CustomerID,
		g.BusinessID,
		g.Business,
		g.Total().String(),
		string(in.DeliveryOption),
		in.DeliveryAddress,
		in.DeliveryPhone,
	))
	if err != nil {
		return nil, err
	}

	const itemQ = `
INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text
`
	for _, item := range g.Items {
		productID := item.ProductID
		oi := domain.OrderItem{
			OrderID:     o.ID,
			ProductID:   &productID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		}
		if err := tx.QueryRow(ctx, itemQ, o.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice.String()).Scan(&oi.ID); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, oi)
	}
	return o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	list := []domain.Order{*o}
	if err := attachDetails(ctx, r.pool, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, "customer_id = $1", []any{customerID}, domain.OrderFilter{})
}

func (r *postgresRepo) ListByBusiness(ctx context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error) {
	return r.list(ctx, "business_id = $1", []any{businessID}, f)
}

func (r *postgresRepo) ListAll(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	return r.list(ctx, "", nil, f)
}

func (r *postgresRepo) list(ctx context.Context, scope string, args []any, f domain.OrderFilter) ([]domain.Order, error) {
	var where []string
	if scope != "" {
		where = append(where, scope)
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachDetails(ctx, r.pool, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrementStock bool) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`, id, string(from), string(to))
	if err != nil {
		r.logger.Printf("order repo: update status id=%s error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT TRUE FROM orders WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}

	if decrementStock {
		// Overselling is clamped at zero rather than rejected.
		if _, err := tx.Exec(ctx, `
UPDATE products p
SET stock_quantity = GREATEST(p.stock_quantity - q.qty, 0), updated_at = now()
FROM (
    SELECT product_id, SUM(quantity) AS qty
    FROM order_items
    WHERE order_id = $1 AND product_id IS NOT NULL
    GROUP BY product_id
) q
WHERE p.id = q.product_id
`, id); err != nil {
			r.logger.Printf("order repo: decrement stock id=%s error=%v", id, err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: update status id=%s %s->%s", id, from, to)
	return r.GetByID(ctx, id)
}

// attachDetails fills Items and Payments for every order in place.
func attachDetails(ctx context.Context, q db.Querier, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	pos := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		pos[o.ID] = i
	}

	rows, err := q.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, product_name, quantity, price::text
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY product_name, id
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return err
		}
		i := pos[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	payments, err := payment.ListForOrders(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, p := range payments {
		i := pos[p.OrderID]
		orders[i].Payments = append(orders[i].Payments, p)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		status   string
		delivery string
	)
	err := row.Scan(
		&o.ID,
		&o.CheckoutID,
		&o.CustomerID,
		&o.BusinessID,
		&o.BusinessName,
		&o.TotalAmount,
		&status,
		&delivery,
		&o.DeliveryAddress,
		&o.DeliveryPhone,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.DeliveryOption = domain.DeliveryOption(delivery)
	return &o, nil
}
