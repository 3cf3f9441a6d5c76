package user

import (
	"context"
	"errors"
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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const userColumns = `id::text, email, username, password_hash, role, phone, address, is_approved, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, username, password_hash, role, phone, address, is_approved)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	created, err := scanUser(r.pool.QueryRow(ctx, q,
		strings.ToLower(u.Email),
		u.Username,
		u.PasswordHash,
		string(u.Role),
		u.Phone,
		u.Address,
		u.IsApproved,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: create email=%s error=%v", u.Email, err)
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("user repo: get email=%s error=%v", email, err)
	}
	return u, err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("user repo: get id=%s error=%v", id, err)
	}
	return u, err
}

func (r *postgresRepo) SetRole(ctx context.Context, id string, role domain.Role, approved bool) (*domain.User, error) {
	q := `
UPDATE users
SET role = $2, is_approved = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id, string(role), approved))
}

// Approve flips is_approved for a pending business owner. Anything else is
// reported as ErrInvalidTransition.
func (r *postgresRepo) Approve(ctx context.Context, id string) (*domain.User, error) {
	q := `
UPDATE users
SET is_approved = TRUE, updated_at = now()
WHERE id = $1 AND role = 'business_owner' AND is_approved = FALSE
RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		r.logger.Printf("user repo: approve id=%s error=%v", id, err)
		return nil, err
	}
	r.logger.Printf("user repo: approve id=%s email=%s", id, u.Email)
	return u, nil
}

func (r *postgresRepo) ListPendingOwners(ctx context.Context) ([]domain.User, error) {
	q := `SELECT ` + userColumns + `
FROM users
WHERE role = 'business_owner' AND is_approved = FALSE
ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.Phone, &u.Address, &u.IsApproved, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
