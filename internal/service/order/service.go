package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/events"
)

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListByBusiness(ctx context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error)
	ListAll(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrementStock bool) (*domain.Order, error)
}

type paymentRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	SetStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (*domain.Payment, error)
}

// Service drives the order lifecycle for owners and order views for every
// role.
type Service struct {
	orders   orderRepo
	payments paymentRepo
	events   events.Publisher
	logger   *log.Logger
}

func New(orders orderRepo, payments paymentRepo, pub events.Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, payments: payments, events: pub, logger: logger}
}

// Transition applies an owner action to an order of the owner's active
// business. Completing an order takes the sold quantities off stock.
func (s *Service) Transition(ctx context.Context, owner domain.User, business domain.Business, orderID, rawAction string) (*domain.Order, error) {
	if !business.OwnedBy(owner.ID) {
		return nil, domain.ErrPermissionDenied
	}
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(business.ID) {
		return nil, domain.ErrPermissionDenied
	}

	action, err := domain.ParseOrderAction(rawAction)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, o, action, "owner:"+owner.ID)
}

// adminActions are the moderation actions an admin may take on any order.
var adminActions = map[domain.OrderAction]bool{
	domain.ActionCancel:   true,
	domain.ActionComplete: true,
}

// AdminTransition cancels or completes any order regardless of business.
// The same transition table and stock handling apply as for owners.
func (s *Service) AdminTransition(ctx context.Context, orderID, rawAction string) (*domain.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	action, err := domain.ParseOrderAction(rawAction)
	if err != nil {
		return nil, err
	}
	if !adminActions[action] {
		return nil, domain.ErrInvalidTransition
	}
	return s.apply(ctx, o, action, "admin")
}

// GetForAdmin returns any order with its items and payments.
func (s *Service) GetForAdmin(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.get(ctx, orderID)
}

func (s *Service) apply(ctx context.Context, o *domain.Order, action domain.OrderAction, actor string) (*domain.Order, error) {
	next, err := domain.NextStatus(o.Status, action)
	if err != nil {
		return nil, err
	}
	updated, err := s.orders.UpdateStatus(ctx, o.ID, o.Status, next, action == domain.ActionComplete)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	s.logger.Printf("order: id=%s actor=%s %s->%s", o.ID, actor, o.Status, next)
	s.publishStatusChanged(ctx, o, next)
	return updated, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, o *domain.Order, next domain.OrderStatus) {
	event := events.OrderStatusChanged{
		OrderID:    o.ID,
		From:       string(o.Status),
		To:         string(next),
		OccurredAt: time.Now().UTC(),
	}
	if o.BusinessID != nil {
		event.BusinessID = *o.BusinessID
	}
	if err := s.events.Publish(ctx, events.TopicOrderStatusChanged, o.ID, event); err != nil {
		s.logger.Printf("order: publish status_changed id=%s error=%v", o.ID, err)
	}
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// GetForCustomer hides other customers' orders behind ErrOrderNotFound.
func (s *Service) GetForCustomer(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListForBusiness(ctx context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error) {
	return s.orders.ListByBusiness(ctx, businessID, f)
}

func (s *Service) GetForBusiness(ctx context.Context, businessID, orderID string) (*domain.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(businessID) {
		return nil, domain.ErrPermissionDenied
	}
	return o, nil
}

func (s *Service) ListAll(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	return s.orders.ListAll(ctx, f)
}

// VerifyPayment is the admin decision on a pending payment, typically a
// bank transfer whose proof was reviewed. A payment that ends failed or
// cancelled also cancels its order while the order is still open.
func (s *Service) VerifyPayment(ctx context.Context, paymentID, rawStatus string) (*domain.Payment, error) {
	next := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanVerify(next) {
		return nil, domain.ErrInvalidTransition
	}
	updated, err := s.payments.SetStatus(ctx, p.ID, p.Status, next)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: payment id=%s %s->%s", p.ID, p.Status, next)

	event := events.PaymentVerified{PaymentID: p.ID, OrderID: p.OrderID, Status: string(next), OccurredAt: time.Now().UTC()}
	if err := s.events.Publish(ctx, events.TopicPaymentVerified, p.OrderID, event); err != nil {
		s.logger.Printf("order: publish payment.verified id=%s error=%v", p.ID, err)
	}

	if next == domain.PaymentFailed || next == domain.PaymentCancelled {
		if err := s.cancelUnpaid(ctx, p.OrderID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// cancelUnpaid cancels an open order whose payment was rejected. Orders that
// already reached a terminal state are left alone.
func (s *Service) cancelUnpaid(ctx context.Context, orderID string) error {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		s.logger.Printf("order: id=%s status=%s kept after payment rejection", o.ID, o.Status)
		return nil
	}
	if _, err := s.apply(ctx, o, domain.ActionCancel, "payment"); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}
	return nil
}

func (s *Service) get(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}
