package user

import (
	"context"

	"marketplace/internal/domain"
)

// Repository persists and fetches users.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SetRole(ctx context.Context, id string, role domain.Role, approved bool) (*domain.User, error)
	Approve(ctx context.Context, id string) (*domain.User, error)
	ListPendingOwners(ctx context.Context) ([]domain.User, error)
}
