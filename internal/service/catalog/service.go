package catalog

import (
	"context"
	"strings"

	"marketplace/internal/domain"
	productrepo "marketplace/internal/repository/product"

	"github.com/shopspring/decimal"
)

type productRepo interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, businessID, id string) error
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// Service serves the public catalog and owner-side product management.
type Service struct {
	products   productRepo
	categories categoryRepo
}

func New(products productRepo, categories categoryRepo) *Service {
	return &Service{products: products, categories: categories}
}

// ProductInput is shared by create and update; nil fields keep the stored
// value on update.
type ProductInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CategoryID    *string `json:"category_id"`
	Price         string  `json:"price"`
	StockQuantity *int    `json:"stock_quantity"`
	IsAvailable   *bool   `json:"is_available"`
}

func (s *Service) ListProducts(ctx context.Context, categoryID, businessID string) ([]domain.Product, error) {
	return s.products.List(ctx, productrepo.ListFilter{
		BusinessID:    strings.TrimSpace(businessID),
		CategoryID:    strings.TrimSpace(categoryID),
		AvailableOnly: true,
	})
}

// ListBusinessProducts includes unavailable products for the owner.
func (s *Service) ListBusinessProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	return s.products.List(ctx, productrepo.ListFilter{BusinessID: businessID})
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, businessID string, in ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name required")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	p := domain.Product{
		BusinessID:  businessID,
		CategoryID:  normalizeID(in.CategoryID),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		IsAvailable: true,
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, domain.Invalid("stock_quantity must not be negative")
		}
		p.StockQuantity = *in.StockQuantity
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	return s.products.Create(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, businessID, productID string, in ProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if in.Description != "" {
		p.Description = strings.TrimSpace(in.Description)
	}
	if in.CategoryID != nil {
		p.CategoryID = normalizeID(in.CategoryID)
	}
	if strings.TrimSpace(in.Price) != "" {
		price, err := parsePrice(in.Price)
		if err != nil {
			return nil, err
		}
		p.Price = price
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, domain.Invalid("stock_quantity must not be negative")
		}
		p.StockQuantity = *in.StockQuantity
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	return s.products.Update(ctx, *p)
}

func (s *Service) DeleteProduct(ctx context.Context, businessID, productID string) error {
	if _, err := s.owned(ctx, businessID, productID); err != nil {
		return err
	}
	return s.products.Delete(ctx, businessID, productID)
}

func (s *Service) owned(ctx context.Context, businessID, productID string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.BusinessID != businessID {
		return nil, domain.ErrPermissionDenied
	}
	return p, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.Invalid("price must be a decimal number")
	}
	if !price.IsPositive() {
		return decimal.Zero, domain.Invalid("price must be greater than 0")
	}
	return price.Round(2), nil
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
