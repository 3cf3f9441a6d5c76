package cart

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error)
	GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	// AddProduct creates the item with quantity 1 or bumps an existing one.
	AddProduct(ctx context.Context, cartID, productID string) error
	// AdjustQuantity applies delta to an item; results below 1 delete it.
	AdjustQuantity(ctx context.Context, cartID, itemID string, delta int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
}
