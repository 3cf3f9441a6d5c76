package product

import (
	"context"

	"marketplace/internal/domain"
)

type ListFilter struct {
	BusinessID    string
	CategoryID    string
	AvailableOnly bool
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, businessID, id string) error
	// Upsert keys products by (business, name); used by bulk imports.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
