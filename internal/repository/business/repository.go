package business

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, b domain.Business) (*domain.Business, error)
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Business, error)
	LatestForOwner(ctx context.Context, ownerID string) (*domain.Business, error)
	ListAll(ctx context.Context) ([]domain.Business, error)
	// Delete force-cancels the business's open orders and removes it in one
	// transaction, returning how many orders were cancelled.
	Delete(ctx context.Context, id string) (int, error)
}
