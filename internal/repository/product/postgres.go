package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

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

const productColumns = `id::text, business_id::text, category_id::text, name, description, price::text, stock_quantity, is_available, created_at, updated_at`

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.BusinessID != "" {
		args = append(args, f.BusinessID)
		where = append(where, fmt.Sprintf("business_id = $%d", len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.AvailableOnly {
		where = append(where, "is_available")
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list business_id=%s error=%v", f.BusinessID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows business_id=%s error=%v", f.BusinessID, err)
		return nil, err
	}
	r.logger.Printf("product repo: list business_id=%s count=%d", f.BusinessID, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: get id=%s not found", id)
		} else {
			r.logger.Printf("product repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (business_id, category_id, name, description, price, stock_quantity, is_available)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.BusinessID, categoryArg(p.CategoryID), p.Name, p.Description, p.Price.String(), p.StockQuantity, p.IsAvailable,
	))
	if err != nil {
		r.logger.Printf("product repo: create business_id=%s name=%s error=%v", p.BusinessID, p.Name, mapWriteErr(err))
		return nil, mapWriteErr(err)
	}
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
UPDATE products
SET category_id = NULLIF($3, '')::uuid,
    name = $4,
    description = $5,
    price = $6,
    stock_quantity = $7,
    is_available = $8,
    updated_at = now()
WHERE id = $1 AND business_id = $2
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.BusinessID, categoryArg(p.CategoryID), p.Name, p.Description, p.Price.String(), p.StockQuantity, p.IsAvailable,
	))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	r.logger.Printf("product repo: update id=%s price=%s stock=%d", updated.ID, updated.Price, updated.StockQuantity)
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, businessID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (business_id, category_id, name, description, price, stock_quantity, is_available)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
ON CONFLICT (business_id, name) DO UPDATE SET
    category_id = COALESCE(EXCLUDED.category_id, products.category_id),
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity,
    is_available = EXCLUDED.is_available,
    updated_at = now()
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.BusinessID, categoryArg(p.CategoryID), p.Name, p.Description, p.Price.String(), p.StockQuantity, p.IsAvailable,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert name=%s business_id=%s error=%v", p.Name, p.BusinessID, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted name=%s business_id=%s id=%s", res.Name, res.BusinessID, res.ID)
	return res, nil
}

func categoryArg(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func mapWriteErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if db.IsUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.BusinessID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
