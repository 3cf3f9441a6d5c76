package seed

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/domain"
	authsvc "marketplace/internal/service/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Demo1234"

type userSeed struct {
	Email    string
	Username string
	Role     domain.Role
	Approved bool
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	Price       string
	Stock       int
}

var categories = []domain.Category{
	{Name: "Groceries", Description: "Food and household staples", Icon: "🛒"},
	{Name: "Bakery", Description: "Bread, cakes and pastries", Icon: "🥖"},
	{Name: "Crafts", Description: "Handmade goods", Icon: "🧶"},
}

var users = []userSeed{
	{Email: "admin@example.com", Username: "admin", Role: domain.RoleAdmin, Approved: true},
	{Email: "owner@example.com", Username: "owner", Role: domain.RoleBusinessOwner, Approved: true},
	{Email: "client@example.com", Username: "client", Role: domain.RoleClient, Approved: true},
}

var products = []productSeed{
	{Name: "Sourdough Loaf", Description: "Naturally leavened", Category: "Bakery", Price: "4.50", Stock: 25},
	{Name: "Butter Croissant", Description: "Baked every morning", Category: "Bakery", Price: "2.20", Stock: 40},
	{Name: "Wildflower Honey", Description: "Local, 500g jar", Category: "Groceries", Price: "9.90", Stock: 12},
	{Name: "Knitted Scarf", Description: "Merino wool", Category: "Crafts", Price: "35.00", Stock: 3},
}

// Apply inserts demo data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := authsvc.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	categoryIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		id, err := upsertCategory(ctx, pool, c)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
		categoryIDs[c.Name] = id
	}

	userIDs := make(map[domain.Role]string, len(users))
	for _, u := range users {
		id, err := upsertUser(ctx, pool, u, hash)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
		userIDs[u.Role] = id
	}

	businessID, err := ensureBusiness(ctx, pool, userIDs[domain.RoleBusinessOwner], "Corner Bakery")
	if err != nil {
		return fmt.Errorf("ensure business: %w", err)
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, businessID, categoryIDs[p.Category], p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	return nil
}

func upsertCategory(ctx context.Context, pool *pgxpool.Pool, c domain.Category) (string, error) {
	const q = `
INSERT INTO categories (name, description, icon)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, icon = EXCLUDED.icon
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, c.Name, c.Description, c.Icon).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, u userSeed, hash string) (string, error) {
	const q = `
INSERT INTO users (email, username, password_hash, role, is_approved)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE
SET username = EXCLUDED.username,
    role = EXCLUDED.role,
    is_approved = EXCLUDED.is_approved,
    updated_at = now()
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, u.Email, u.Username, hash, string(u.Role), u.Approved).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureBusiness(ctx context.Context, pool *pgxpool.Pool, ownerID, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `SELECT id::text FROM businesses WHERE owner_id = $1 AND name = $2`, ownerID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	const q = `
INSERT INTO businesses (owner_id, name, description, email)
VALUES ($1, $2, 'Demo business', 'owner@example.com')
RETURNING id::text
`
	if err := pool.QueryRow(ctx, q, ownerID, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, businessID, categoryID string, p productSeed) error {
	const q = `
INSERT INTO products (business_id, category_id, name, description, price, stock_quantity)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6)
ON CONFLICT (business_id, name) DO UPDATE
SET category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q, businessID, categoryID, p.Name, p.Description, p.Price, p.Stock)
	return err
}
