package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/events"
	orderrepo "marketplace/internal/repository/order"
	"marketplace/internal/session"
	"marketplace/internal/storage"

	"github.com/google/uuid"
)

type cartRepo interface {
	GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error)
}

type orderRepo interface {
	PlaceOrders(ctx context.Context, in orderrepo.PlaceOrdersInput, settle orderrepo.SettleFunc) ([]domain.Order, error)
	CheckoutExists(ctx context.Context, customerID, idempotencyKey string) (bool, error)
}

type Config struct {
	ProofMaxBytes int64
	LockTTL       time.Duration
	Currency      string
}

// Deps groups the collaborators of the checkout pipeline.
type Deps struct {
	Carts   cartRepo
	Orders  orderRepo
	Gateway Gateway
	Proofs  storage.Store
	Drafts  session.DraftStore
	Locker  session.Locker
	Events  events.Publisher
}

type Service struct {
	carts   cartRepo
	orders  orderRepo
	gateway Gateway
	proofs  storage.Store
	drafts  session.DraftStore
	locker  session.Locker
	events  events.Publisher
	cfg     Config
	logger  *log.Logger
}

func New(deps Deps, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.ProofMaxBytes <= 0 {
		cfg.ProofMaxBytes = 5 * 1024 * 1024
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		carts:   deps.Carts,
		orders:  deps.Orders,
		gateway: deps.Gateway,
		proofs:  deps.Proofs,
		drafts:  deps.Drafts,
		locker:  deps.Locker,
		events:  deps.Events,
		cfg:     cfg,
		logger:  logger,
	}
}

// Input is one checkout submission. Empty delivery and payment fields are
// taken from the saved draft.
type Input struct {
	IdempotencyKey string
	PaymentMethod  string
	DeliveryOption string
	Street         string
	City           string
	PostalCode     string
	Phone          string
	Card           *CardInput
	Proof          *Proof
}

// Preview is what the checkout page shows before submission.
type Preview struct {
	Cart   *domain.Cart
	Totals domain.Totals
	Draft  session.Draft
}

func (s *Service) Preview(ctx context.Context, customerID string) (*Preview, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, domain.ErrEmptyCart
	}
	draft, err := s.loadDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &Preview{Cart: cart, Totals: domain.TotalsFor(cart.Subtotal()), Draft: draft}, nil
}

// SaveDraft stores the checkout form without validating it.
func (s *Service) SaveDraft(ctx context.Context, customerID string, d session.Draft) error {
	return s.drafts.Save(ctx, customerID, d)
}

// Checkout turns the customer's cart into one order per business and
// settles payment with the chosen method. Either every order is created
// and the cart emptied, or nothing changes.
func (s *Service) Checkout(ctx context.Context, customerID string, in Input) ([]domain.Order, error) {
	release, err := s.locker.Acquire(ctx, customerID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// A replayed key is reported as such even though the first submission
	// already drained the cart.
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		seen, err := s.orders.CheckoutExists(ctx, customerID, key)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, domain.ErrDuplicateCheckout
		}
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, domain.ErrEmptyCart
	}

	draft, err := s.loadDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	in = mergeDraft(in, draft)

	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if !method.Valid() {
		return nil, domain.ErrMissingPaymentMethod
	}
	placement, err := deliveryDetails(in)
	if err != nil {
		return nil, err
	}
	placement.CustomerID = customerID
	placement.Method = method
	placement.IdempotencyKey = key
	if placement.IdempotencyKey == "" {
		placement.IdempotencyKey = uuid.NewString()
	}

	var (
		settle   orderrepo.SettleFunc
		proofRef string
		captured []capturedCharge
	)
	switch method {
	case domain.PaymentCreditCard:
		lastFour, err := validateCard(in.Card)
		if err != nil {
			return nil, err
		}
		settle = s.cardSettlement(placement.IdempotencyKey, lastFour, &captured)
	case domain.PaymentBankTransfer:
		if err := validateProof(in.Proof, s.cfg.ProofMaxBytes); err != nil {
			return nil, err
		}
		proofRef, err = s.proofs.Save(ctx, in.Proof.Filename, io.LimitReader(in.Proof.Body, s.cfg.ProofMaxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("store proof of payment: %w", err)
		}
		ref := proofRef
		settle = pendingSettlement(method, &ref)
	case domain.PaymentCashOnDelivery:
		settle = pendingSettlement(method, nil)
	}

	orders, err := s.orders.PlaceOrders(ctx, placement, settle)
	if err != nil {
		if len(captured) > 0 {
			if refundErr := s.refundCaptured(ctx, placement.IdempotencyKey, captured); refundErr != nil {
				err = fmt.Errorf("%w (refund of %d captured charge(s) failed: %v)", err, len(captured), refundErr)
			}
		}
		if proofRef != "" {
			if delErr := s.proofs.Delete(context.WithoutCancel(ctx), proofRef); delErr != nil {
				s.logger.Printf("checkout: remove orphan proof ref=%s error=%v", proofRef, delErr)
			}
		}
		s.logger.Printf("checkout: customer_id=%s method=%s error=%v", customerID, method, err)
		return nil, err
	}
	s.logger.Printf("checkout: customer_id=%s method=%s orders=%d", customerID, method, len(orders))

	if err := s.drafts.Clear(ctx, customerID); err != nil {
		s.logger.Printf("checkout: clear draft customer_id=%s error=%v", customerID, err)
	}
	s.publishCreated(ctx, orders, method)
	return orders, nil
}

func (s *Service) publishCreated(ctx context.Context, orders []domain.Order, method domain.PaymentMethod) {
	now := time.Now().UTC()
	for _, o := range orders {
		event := events.OrderCreated{
			OrderID:       o.ID,
			CheckoutID:    o.CheckoutID,
			CustomerID:    o.CustomerID,
			TotalAmount:   o.TotalAmount.StringFixed(2),
			PaymentMethod: string(method),
			OccurredAt:    now,
		}
		if o.BusinessID != nil {
			event.BusinessID = *o.BusinessID
		}
		if err := s.events.Publish(ctx, events.TopicOrderCreated, o.ID, event); err != nil {
			s.logger.Printf("checkout: publish order.created order_id=%s error=%v", o.ID, err)
		}
	}
}

func (s *Service) loadDraft(ctx context.Context, customerID string) (session.Draft, error) {
	d, err := s.drafts.Load(ctx, customerID)
	if err != nil {
		if errors.Is(err, session.ErrNoDraft) {
			return session.Draft{}, nil
		}
		return session.Draft{}, err
	}
	return d, nil
}

func mergeDraft(in Input, d session.Draft) Input {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&in.PaymentMethod, string(d.PaymentMethod))
	fill(&in.DeliveryOption, string(d.DeliveryOption))
	fill(&in.Street, d.Street)
	fill(&in.City, d.City)
	fill(&in.PostalCode, d.PostalCode)
	fill(&in.Phone, d.Phone)
	return in
}

// deliveryDetails validates the delivery fields. Pickup ignores any address
// that was sent.
func deliveryDetails(in Input) (orderrepo.PlaceOrdersInput, error) {
	option := domain.DeliveryOption(strings.ToLower(strings.TrimSpace(in.DeliveryOption)))
	if option == "" {
		option = domain.DeliveryPickup
	}
	switch option {
	case domain.DeliveryPickup:
		return orderrepo.PlaceOrdersInput{DeliveryOption: option}, nil
	case domain.DeliveryDelivery:
	default:
		return orderrepo.PlaceOrdersInput{}, domain.ErrInvalidDeliveryOption
	}

	street := strings.TrimSpace(in.Street)
	city := strings.TrimSpace(in.City)
	phone := strings.TrimSpace(in.Phone)
	if street == "" || city == "" || phone == "" {
		return orderrepo.PlaceOrdersInput{}, domain.ErrMissingDeliveryDetails
	}
	address := street + ", " + city
	if postal := strings.TrimSpace(in.PostalCode); postal != "" {
		address += " " + postal
	}
	return orderrepo.PlaceOrdersInput{
		DeliveryOption:  option,
		DeliveryAddress: &address,
		DeliveryPhone:   &phone,
	}, nil
}
