package order

import (
	"context"

	"marketplace/internal/domain"
)

// PlaceOrdersInput describes one checkout submission.
type PlaceOrdersInput struct {
	CustomerID      string
	IdempotencyKey  string
	Method          domain.PaymentMethod
	DeliveryOption  domain.DeliveryOption
	DeliveryAddress *string
	DeliveryPhone   *string
}

// SettleFunc runs inside the checkout transaction once the orders exist and
// returns the payment row to record for each of them. An error aborts the
// whole checkout.
type SettleFunc func(ctx context.Context, orders []domain.Order) ([]domain.Payment, error)

type Repository interface {
	// PlaceOrders turns the customer's cart into one order per business,
	// records payments and empties the cart in a single transaction.
	PlaceOrders(ctx context.Context, in PlaceOrdersInput, settle SettleFunc) ([]domain.Order, error)
	// CheckoutExists reports whether the customer already committed a
	// checkout under idempotencyKey.
	CheckoutExists(ctx context.Context, customerID, idempotencyKey string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListByBusiness(ctx context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error)
	ListAll(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	// UpdateStatus is a compare-and-set on the order status. When
	// decrementStock is set the ordered quantities are taken off product
	// stock in the same transaction, never below zero.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrementStock bool) (*domain.Order, error)
}
