package cart

import (
	"context"
	"errors"

	"marketplace/internal/db"
	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id)
VALUES ($1)
ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
RETURNING id::text
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, customerID).Scan(&cartID); err != nil {
		return nil, err
	}
	return FetchCart(ctx, r.pool, `
SELECT id::text, customer_id::text, created_at, updated_at
FROM carts
WHERE id = $1
`, cartID)
}

func (r *postgresRepo) GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	return FetchCart(ctx, r.pool, `
SELECT id::text, customer_id::text, created_at, updated_at
FROM carts
WHERE customer_id = $1
`, customerID)
}

func (r *postgresRepo) AddProduct(ctx context.Context, cartID, productID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, 1)
ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1
`, cartID, productID); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) AdjustQuantity(ctx context.Context, cartID, itemID string, delta int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var qty int
	err = tx.QueryRow(ctx, `
SELECT quantity
FROM cart_items
WHERE id = $1 AND cart_id = $2
FOR UPDATE
`, itemID, cartID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if qty+delta < 1 {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE id = $2`, qty+delta, itemID); err != nil {
			return err
		}
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FetchCart loads a cart header with its items priced from the live product
// rows. Items whose product is no longer available are left out, so they can
// be neither shown nor ordered. It accepts a transaction so checkout can read
// under its cart lock.
func FetchCart(ctx context.Context, q db.Querier, cartQuery string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	err := q.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT ci.id::text, ci.cart_id::text, p.id::text, p.name, b.id::text, b.name, p.price::text, ci.quantity, ci.added_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
JOIN businesses b ON b.id = p.business_id
WHERE ci.cart_id = $1 AND p.is_available
ORDER BY ci.added_at ASC
`
	rows, err := q.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.ProductName,
			&item.BusinessID,
			&item.Business,
			&item.UnitPrice,
			&item.Quantity,
			&item.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
