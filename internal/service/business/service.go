package business

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/events"
)

type businessRepo interface {
	Create(ctx context.Context, b domain.Business) (*domain.Business, error)
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Business, error)
	LatestForOwner(ctx context.Context, ownerID string) (*domain.Business, error)
	ListAll(ctx context.Context) ([]domain.Business, error)
	Delete(ctx context.Context, id string) (int, error)
}

type userRepo interface {
	SetRole(ctx context.Context, id string, role domain.Role, approved bool) (*domain.User, error)
	Approve(ctx context.Context, id string) (*domain.User, error)
	ListPendingOwners(ctx context.Context) ([]domain.User, error)
}

type Service struct {
	businesses businessRepo
	users      userRepo
	events     events.Publisher
	logger     *log.Logger
}

func New(businesses businessRepo, users userRepo, pub events.Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{businesses: businesses, users: users, events: pub, logger: logger}
}

type RegisterInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// Register creates a business for owner. A client registering a business is
// promoted to business_owner and waits for approval.
func (s *Service) Register(ctx context.Context, owner domain.User, in RegisterInput) (*domain.Business, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name required")
	}
	if owner.Role != domain.RoleClient && owner.Role != domain.RoleBusinessOwner {
		return nil, domain.ErrPermissionDenied
	}

	b, err := s.businesses.Create(ctx, domain.Business{
		OwnerID:     owner.ID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
	})
	if err != nil {
		return nil, err
	}
	if owner.Role == domain.RoleClient {
		if _, err := s.users.SetRole(ctx, owner.ID, domain.RoleBusinessOwner, false); err != nil {
			return nil, err
		}
		s.logger.Printf("business: user_id=%s promoted to pending owner", owner.ID)
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, ownerID string) ([]domain.Business, error) {
	return s.businesses.ListByOwner(ctx, ownerID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Business, error) {
	return s.businesses.ListAll(ctx)
}

// Resolve picks the business an owner is acting for: the explicit id when
// given, otherwise the one created most recently.
func (s *Service) Resolve(ctx context.Context, owner domain.User, businessID string) (*domain.Business, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return s.businesses.LatestForOwner(ctx, owner.ID)
	}
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(owner.ID) {
		return nil, domain.ErrPermissionDenied
	}
	return b, nil
}

// Delete removes a business after force-cancelling its open orders and
// returns the number cancelled. Owners and admins may delete.
func (s *Service) Delete(ctx context.Context, actor domain.User, businessID string) (int, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return 0, err
	}
	if actor.Role != domain.RoleAdmin && !b.OwnedBy(actor.ID) {
		return 0, domain.ErrPermissionDenied
	}

	cancelled, err := s.businesses.Delete(ctx, b.ID)
	if err != nil {
		return 0, err
	}
	s.logger.Printf("business: deleted id=%s by=%s cancelled_orders=%d", b.ID, actor.ID, cancelled)

	event := events.BusinessDeleted{BusinessID: b.ID, CancelledOrders: cancelled, OccurredAt: time.Now().UTC()}
	if err := s.events.Publish(ctx, events.TopicBusinessDeleted, b.ID, event); err != nil {
		s.logger.Printf("business: publish deleted id=%s error=%v", b.ID, err)
	}
	return cancelled, nil
}

func (s *Service) ListPendingOwners(ctx context.Context) ([]domain.User, error) {
	return s.users.ListPendingOwners(ctx)
}

func (s *Service) ApproveOwner(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Approve(ctx, userID)
}
