package business

import (
	"context"
	"errors"
	"io"
	"log"

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

const businessColumns = `id::text, owner_id::text, name, description, address, phone, email, is_active, created_at`

func (r *postgresRepo) Create(ctx context.Context, b domain.Business) (*domain.Business, error) {
	const q = `
INSERT INTO businesses (owner_id, name, description, address, phone, email, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
RETURNING ` + businessColumns
	created, err := scanBusiness(r.pool.QueryRow(ctx, q, b.OwnerID, b.Name, b.Description, b.Address, b.Phone, b.Email))
	if err != nil {
		r.logger.Printf("business repo: create owner_id=%s error=%v", b.OwnerID, err)
		return nil, err
	}
	r.logger.Printf("business repo: create owner_id=%s id=%s", b.OwnerID, created.ID)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	const q = `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	return scanBusiness(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Business, error) {
	const q = `SELECT ` + businessColumns + `
FROM businesses
WHERE owner_id = $1
ORDER BY created_at DESC`
	return r.list(ctx, q, ownerID)
}

func (r *postgresRepo) LatestForOwner(ctx context.Context, ownerID string) (*domain.Business, error) {
	const q = `SELECT ` + businessColumns + `
FROM businesses
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT 1`
	return scanBusiness(r.pool.QueryRow(ctx, q, ownerID))
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Business, error) {
	const q = `SELECT ` + businessColumns + ` FROM businesses ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT TRUE FROM businesses WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	open := make([]string, 0, len(domain.OpenOrderStatuses))
	for _, s := range domain.OpenOrderStatuses {
		open = append(open, string(s))
	}
	cmd, err := tx.Exec(ctx, `
UPDATE orders
SET status = 'cancelled', updated_at = now()
WHERE business_id = $1 AND status = ANY($2)
`, id, open)
	if err != nil {
		r.logger.Printf("business repo: cancel orders id=%s error=%v", id, err)
		return 0, err
	}
	cancelled := int(cmd.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id); err != nil {
		r.logger.Printf("business repo: delete id=%s error=%v", id, err)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Printf("business repo: delete id=%s cancelled_orders=%d", id, cancelled)
	return cancelled, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Business, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.Address, &b.Phone, &b.Email, &b.IsActive, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}
