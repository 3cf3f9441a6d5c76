package category

import (
	"context"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, description, icon
FROM categories
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert keys categories by name; empty description or icon keep the stored value.
func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description, icon)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description),
    icon = COALESCE(NULLIF(EXCLUDED.icon, ''), categories.icon)
RETURNING id::text, name, description, icon
`
	var out domain.Category
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Description, c.Icon).Scan(&out.ID, &out.Name, &out.Description, &out.Icon); err != nil {
		return nil, err
	}
	return &out, nil
}
