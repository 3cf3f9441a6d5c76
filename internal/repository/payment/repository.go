package payment

import (
	"context"

	"marketplace/internal/domain"
)

// Repository reads payments and applies operator verification.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	// SetStatus moves a payment from one status to the next; it fails with
	// domain.ErrInvalidTransition when the stored status is no longer from.
	SetStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (*domain.Payment, error)
}
