package cart

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/domain"
	cartrepo "marketplace/internal/repository/cart"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error)
	AddProduct(ctx context.Context, cartID, productID string) error
	AdjustQuantity(ctx context.Context, cartID, itemID string, delta int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

// ErrProductUnavailable is returned when adding a product that is hidden or
// does not exist.
var ErrProductUnavailable = errors.New("product not available")

type UpdateInput struct {
	Action string `json:"action"`
}

// Get returns the customer's cart, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.repo.GetOrCreate(ctx, customerID)
}

// AddProduct puts one unit of product into the cart, or bumps the quantity
// of an existing line.
func (s *Service) AddProduct(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.Invalid("product_id required")
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}

	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddProduct(ctx, cart.ID, product.ID); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, customerID)
}

// UpdateItem applies increment, decrement or remove to a line. Decrementing
// a line with quantity 1 removes it.
func (s *Service) UpdateItem(ctx context.Context, customerID, itemID string, in UpdateInput) (*domain.Cart, error) {
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(in.Action)) {
	case "increment":
		err = s.repo.AdjustQuantity(ctx, cart.ID, itemID, 1)
	case "decrement":
		err = s.repo.AdjustQuantity(ctx, cart.ID, itemID, -1)
	case "remove":
		err = s.repo.RemoveItem(ctx, cart.ID, itemID)
	case "":
		return nil, domain.Invalid("action required")
	default:
		return nil, domain.Invalid("unsupported action")
	}
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, customerID)
}

func (s *Service) RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error) {
	return s.UpdateItem(ctx, customerID, itemID, UpdateInput{Action: "remove"})
}
