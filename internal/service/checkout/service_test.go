package checkout

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"marketplace/internal/domain"
	orderrepo "marketplace/internal/repository/order"
	"marketplace/internal/session"

	"github.com/shopspring/decimal"
)

type stubCartRepo struct {
	cart *domain.Cart
}

func (r *stubCartRepo) GetOrCreate(_ context.Context, customerID string) (*domain.Cart, error) {
	if r.cart == nil {
		return &domain.Cart{ID: "cart", CustomerID: customerID}, nil
	}
	clone := *r.cart
	return &clone, nil
}

// stubOrderRepo mimics the transactional placement in memory: the cart is
// only emptied when settle succeeds.
type stubOrderRepo struct {
	carts     *stubCartRepo
	calls     int
	lastIn    orderrepo.PlaceOrdersInput
	keysSeen  map[string]bool
	commitErr error
}

func (r *stubOrderRepo) CheckoutExists(_ context.Context, _ string, key string) (bool, error) {
	return r.keysSeen[key], nil
}

func (r *stubOrderRepo) PlaceOrders(ctx context.Context, in orderrepo.PlaceOrdersInput, settle orderrepo.SettleFunc) ([]domain.Order, error) {
	r.calls++
	r.lastIn = in
	if r.keysSeen == nil {
		r.keysSeen = make(map[string]bool)
	}
	if r.keysSeen[in.IdempotencyKey] {
		return nil, domain.ErrDuplicateCheckout
	}
	if r.carts.cart == nil || r.carts.cart.Empty() {
		return nil, domain.ErrEmptyCart
	}

	var orders []domain.Order
	for i, g := range domain.SplitByBusiness(r.carts.cart.Items) {
		businessID := g.BusinessID
		o := domain.Order{
			ID:              "o" + string(rune('1'+i)),
			CheckoutID:      "chk",
			CustomerID:      in.CustomerID,
			BusinessID:      &businessID,
			BusinessName:    g.Business,
			TotalAmount:     g.Total(),
			Status:          domain.OrderPending,
			DeliveryOption:  in.DeliveryOption,
			DeliveryAddress: in.DeliveryAddress,
			DeliveryPhone:   in.DeliveryPhone,
		}
		orders = append(orders, o)
	}
	payments, err := settle(ctx, orders)
	if err != nil {
		return nil, err
	}
	if r.commitErr != nil {
		return nil, r.commitErr
	}
	for i := range orders {
		orders[i].Payments = []domain.Payment{payments[i]}
	}
	r.keysSeen[in.IdempotencyKey] = true
	r.carts.cart.Items = nil
	return orders, nil
}

type recordingGateway struct {
	requests  []ChargeRequest
	err       error
	declineAt int
	refunds   []string
	refundErr error
}

// Charge fails every call when err is set, or only the declineAt-th call.
func (g *recordingGateway) Charge(_ context.Context, req ChargeRequest) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	if g.declineAt == len(g.requests) {
		return "", domain.ErrPaymentDeclined
	}
	return "tx-" + req.IdempotencyKey, nil
}

func (g *recordingGateway) Refund(_ context.Context, transactionID, _ string) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, transactionID)
	return nil
}

type stubStore struct {
	saved   map[string][]byte
	deleted []string
}

func (s *stubStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	ref := "payment_proofs/" + name
	s.saved[ref] = data
	return ref, nil
}

func (s *stubStore) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	delete(s.saved, ref)
	return nil
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.topics = append(p.topics, topic)
	return nil
}

type fixture struct {
	svc     *Service
	carts   *stubCartRepo
	orders  *stubOrderRepo
	gateway *recordingGateway
	store   *stubStore
	drafts  *session.Memory
	events  *recordingPublisher
}

// newFixture builds a service over a cart with 2x50.00 from Bakery and
// 1x30.00 from Books.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	carts := &stubCartRepo{cart: &domain.Cart{ID: "cart", CustomerID: "cust", Items: []domain.CartItem{
		{ID: "i1", ProductID: "bread", ProductName: "Bread", BusinessID: "b1", Business: "Bakery", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 2},
		{ID: "i2", ProductID: "novel", ProductName: "Novel", BusinessID: "b2", Business: "Books", UnitPrice: decimal.RequireFromString("30.00"), Quantity: 1},
	}}}
	f := &fixture{
		carts:   carts,
		orders:  &stubOrderRepo{carts: carts},
		gateway: &recordingGateway{},
		store:   &stubStore{},
		drafts:  session.NewMemory(time.Hour),
		events:  &recordingPublisher{},
	}
	f.svc = New(Deps{
		Carts:   f.carts,
		Orders:  f.orders,
		Gateway: f.gateway,
		Proofs:  f.store,
		Drafts:  f.drafts,
		Locker:  f.drafts,
		Events:  f.events,
	}, Config{ProofMaxBytes: 5 * 1024 * 1024, LockTTL: time.Minute, Currency: "usd"}, nil)
	return f
}

func validCard() *CardInput {
	return &CardInput{Number: "4111 1111 1111 1111", Holder: "Ann Smith", Expiry: "12/30", CVV: "123"}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.cart.Items = nil
	if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "cash_on_delivery"}); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_PaymentMethodRequired(t *testing.T) {
	f := newFixture(t)
	for _, method := range []string{"", "bitcoin"} {
		if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: method}); !errors.Is(err, domain.ErrMissingPaymentMethod) {
			t.Fatalf("method %q: expected ErrMissingPaymentMethod, got %v", method, err)
		}
	}
	if f.orders.calls != 0 {
		t.Fatalf("validation failures must not reach the repository")
	}
}

func TestCheckout_DeliveryValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Checkout(ctx, "cust", Input{PaymentMethod: "cash_on_delivery", DeliveryOption: "drone"}); !errors.Is(err, domain.ErrInvalidDeliveryOption) {
		t.Fatalf("expected ErrInvalidDeliveryOption, got %v", err)
	}
	if _, err := f.svc.Checkout(ctx, "cust", Input{PaymentMethod: "cash_on_delivery", DeliveryOption: "delivery", Street: "Main 1", City: "Riga"}); !errors.Is(err, domain.ErrMissingDeliveryDetails) {
		t.Fatalf("expected ErrMissingDeliveryDetails, got %v", err)
	}

	orders, err := f.svc.Checkout(ctx, "cust", Input{
		PaymentMethod:  "cash_on_delivery",
		DeliveryOption: "delivery",
		Street:         "Main 1",
		City:           "Riga",
		PostalCode:     "LV-1010",
		Phone:          "+371 200",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if got := *orders[0].DeliveryAddress; got != "Main 1, Riga LV-1010" {
		t.Fatalf("unexpected address %q", got)
	}
	if *orders[0].DeliveryPhone != "+371 200" || orders[0].DeliveryOption != domain.DeliveryDelivery {
		t.Fatalf("unexpected delivery fields %+v", orders[0])
	}
}

func TestCheckout_CashOnDelivery(t *testing.T) {
	f := newFixture(t)
	orders, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "cash_on_delivery"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected two orders, got %d", len(orders))
	}
	if orders[0].TotalAmount.StringFixed(2) != "100.00" || orders[1].TotalAmount.StringFixed(2) != "30.00" {
		t.Fatalf("unexpected totals %s %s", orders[0].TotalAmount, orders[1].TotalAmount)
	}
	for _, o := range orders {
		p := o.Payments[0]
		if o.Status != domain.OrderPending || p.Status != domain.PaymentPending || p.Method != domain.PaymentCashOnDelivery || !p.Amount.Equal(o.TotalAmount) {
			t.Fatalf("unexpected order/payment %+v %+v", o, p)
		}
	}
	if orders[0].DeliveryOption != domain.DeliveryPickup || orders[0].DeliveryAddress != nil {
		t.Fatalf("expected pickup default, got %+v", orders[0])
	}
	if !f.carts.cart.Empty() {
		t.Fatalf("expected cart emptied")
	}
	if len(f.events.topics) != 2 || f.events.topics[0] != "order.created" {
		t.Fatalf("expected two order.created events, got %v", f.events.topics)
	}
	if len(f.gateway.requests) != 0 {
		t.Fatalf("cash on delivery must not charge")
	}
}

func TestCheckout_SingleBusinessCashOnDelivery(t *testing.T) {
	f := newFixture(t)
	f.carts.cart.Items[1].BusinessID = "b1"
	f.carts.cart.Items[1].Business = "Bakery"

	orders, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "cash_on_delivery"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(orders) != 1 || orders[0].TotalAmount.StringFixed(2) != "130.00" {
		t.Fatalf("expected one order of 130.00, got %+v", orders)
	}
	if orders[0].Payments[0].Amount.StringFixed(2) != "130.00" {
		t.Fatalf("expected payment of 130.00, got %s", orders[0].Payments[0].Amount)
	}
}

func TestCheckout_CreditCard(t *testing.T) {
	f := newFixture(t)
	orders, err := f.svc.Checkout(context.Background(), "cust", Input{
		IdempotencyKey: "key-1",
		PaymentMethod:  "credit_card",
		Card:           validCard(),
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	for _, o := range orders {
		p := o.Payments[0]
		if p.Status != domain.PaymentCompleted || p.CardLastFour == nil || *p.CardLastFour != "1111" {
			t.Fatalf("unexpected card payment %+v", p)
		}
		if p.TransactionID != "tx-key-1:"+o.ID {
			t.Fatalf("unexpected transaction id %q", p.TransactionID)
		}
	}
	if len(f.gateway.requests) != 2 || f.gateway.requests[0].Currency != "usd" {
		t.Fatalf("expected one charge per order, got %+v", f.gateway.requests)
	}
}

func TestCheckout_CreditCardValidation(t *testing.T) {
	cases := []*CardInput{
		nil,
		{Number: "4111 1111 1111", Holder: "A", Expiry: "1/30", CVV: "1"},
		{Number: "4111 1111 1111 111x", Holder: "A", Expiry: "1/30", CVV: "1"},
		{Number: "4111111111111111", Holder: " ", Expiry: "1/30", CVV: "1"},
		{Number: "4111111111111111", Holder: "A", Expiry: "1/30"},
	}
	for _, card := range cases {
		f := newFixture(t)
		if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "credit_card", Card: card}); !errors.Is(err, domain.ErrInvalidCardDetails) {
			t.Fatalf("card %+v: expected ErrInvalidCardDetails, got %v", card, err)
		}
		if f.orders.calls != 0 {
			t.Fatalf("card %+v: repository must not be called", card)
		}
	}
}

func TestCheckout_CardDeclinedKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = domain.ErrPaymentDeclined
	if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "credit_card", Card: validCard()}); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if len(f.carts.cart.Items) != 2 {
		t.Fatalf("expected cart intact after decline")
	}
}

func TestCheckout_BankTransfer(t *testing.T) {
	f := newFixture(t)
	orders, err := f.svc.Checkout(context.Background(), "cust", Input{
		PaymentMethod: "bank_transfer",
		Proof:         &Proof{Filename: "receipt.PDF", Size: 8, Body: strings.NewReader("%PDF-1.4")},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	for _, o := range orders {
		p := o.Payments[0]
		if p.Status != domain.PaymentPending || p.ProofOfPayment == nil || *p.ProofOfPayment != "payment_proofs/receipt.PDF" {
			t.Fatalf("unexpected bank payment %+v", p)
		}
	}
	if len(f.store.saved) != 1 {
		t.Fatalf("expected proof stored once, got %d", len(f.store.saved))
	}
}

func TestCheckout_BankTransferProofTooLarge(t *testing.T) {
	f := newFixture(t)
	body := bytes.NewReader(make([]byte, 6*1000*1000))
	_, err := f.svc.Checkout(context.Background(), "cust", Input{
		PaymentMethod: "bank_transfer",
		Proof:         &Proof{Filename: "receipt.pdf", Size: int64(body.Len()), Body: body},
	})
	if !errors.Is(err, domain.ErrProofTooLarge) {
		t.Fatalf("expected ErrProofTooLarge, got %v", err)
	}
	if f.orders.calls != 0 || len(f.store.saved) != 0 {
		t.Fatalf("nothing may be written for an oversized proof")
	}
	if len(f.carts.cart.Items) != 2 {
		t.Fatalf("expected cart intact")
	}
}

func TestCheckout_BankTransferProofValidation(t *testing.T) {
	cases := []*Proof{
		nil,
		{Filename: "receipt.exe", Size: 10, Body: strings.NewReader("x")},
		{Filename: "receipt", Size: 10, Body: strings.NewReader("x")},
	}
	for _, proof := range cases {
		f := newFixture(t)
		if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "bank_transfer", Proof: proof}); !errors.Is(err, domain.ErrInvalidProofOfPayment) {
			t.Fatalf("proof %+v: expected ErrInvalidProofOfPayment, got %v", proof, err)
		}
	}
}

func TestCheckout_FailedPlacementRemovesProof(t *testing.T) {
	f := newFixture(t)
	f.orders.commitErr = errors.New("commit failed")
	_, err := f.svc.Checkout(context.Background(), "cust", Input{
		PaymentMethod: "bank_transfer",
		Proof:         &Proof{Filename: "r.png", Size: 3, Body: strings.NewReader("png")},
	})
	if !errors.Is(err, f.orders.commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if len(f.store.deleted) != 1 || len(f.store.saved) != 0 {
		t.Fatalf("expected orphan proof removed, deleted=%v", f.store.deleted)
	}
	if len(f.gateway.refunds) != 0 {
		t.Fatalf("bank transfers charge nothing, got refunds %v", f.gateway.refunds)
	}
}

func TestCheckout_LockContention(t *testing.T) {
	f := newFixture(t)
	release, err := f.drafts.Acquire(context.Background(), "cust", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if _, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "cash_on_delivery"}); !errors.Is(err, domain.ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}
}

func TestCheckout_DraftFillsAndIsCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	err := f.svc.SaveDraft(ctx, "cust", session.Draft{
		PaymentMethod:  domain.PaymentCashOnDelivery,
		DeliveryOption: domain.DeliveryDelivery,
		Street:         "Main 1",
		City:           "Riga",
		Phone:          "555",
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	preview, err := f.svc.Preview(ctx, "cust")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if preview.Totals.TotalWithTax.StringFixed(2) != "149.50" || preview.Draft.City != "Riga" {
		t.Fatalf("unexpected preview %+v", preview)
	}

	orders, err := f.svc.Checkout(ctx, "cust", Input{City: "Tartu"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if *orders[0].DeliveryAddress != "Main 1, Tartu" {
		t.Fatalf("expected request field to win over draft, got %q", *orders[0].DeliveryAddress)
	}
	if _, err := f.drafts.Load(ctx, "cust"); !errors.Is(err, session.ErrNoDraft) {
		t.Fatalf("expected draft cleared after checkout, got %v", err)
	}
}

func TestCheckout_SecondSubmitSeesEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Checkout(ctx, "cust", Input{PaymentMethod: "cash_on_delivery"}); err != nil {
		t.Fatalf("first Checkout: %v", err)
	}
	if _, err := f.svc.Checkout(ctx, "cust", Input{PaymentMethod: "cash_on_delivery"}); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart on resubmit, got %v", err)
	}
}

func TestCheckout_ReplayedKeyIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := Input{IdempotencyKey: "k-1", PaymentMethod: "cash_on_delivery"}
	if _, err := f.svc.Checkout(ctx, "cust", in); err != nil {
		t.Fatalf("first Checkout: %v", err)
	}
	if _, err := f.svc.Checkout(ctx, "cust", in); !errors.Is(err, domain.ErrDuplicateCheckout) {
		t.Fatalf("expected ErrDuplicateCheckout for a replayed key, got %v", err)
	}
	if f.orders.calls != 1 {
		t.Fatalf("expected replay answered before placement, got %d calls", f.orders.calls)
	}
}

func TestCheckout_DeclineRefundsEarlierCharges(t *testing.T) {
	f := newFixture(t)
	f.gateway.declineAt = 2
	_, err := f.svc.Checkout(context.Background(), "cust", Input{IdempotencyKey: "k", PaymentMethod: "credit_card", Card: validCard()})
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if len(f.gateway.requests) != 2 {
		t.Fatalf("expected two charge attempts, got %d", len(f.gateway.requests))
	}
	want := "tx-" + f.gateway.requests[0].IdempotencyKey
	if len(f.gateway.refunds) != 1 || f.gateway.refunds[0] != want {
		t.Fatalf("expected first charge %s refunded, got %v", want, f.gateway.refunds)
	}
	if len(f.carts.cart.Items) != 2 {
		t.Fatalf("expected cart intact after decline")
	}
}

func TestCheckout_FailedCommitRefundsAllCharges(t *testing.T) {
	f := newFixture(t)
	commitErr := errors.New("commit: connection reset")
	f.orders.commitErr = commitErr
	_, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "credit_card", Card: validCard()})
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if len(f.gateway.refunds) != 2 {
		t.Fatalf("expected both charges refunded, got %v", f.gateway.refunds)
	}
}

func TestCheckout_RefundFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.gateway.declineAt = 2
	f.gateway.refundErr = errors.New("gateway unavailable")
	_, err := f.svc.Checkout(context.Background(), "cust", Input{PaymentMethod: "credit_card", Card: validCard()})
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined to survive, got %v", err)
	}
	if !strings.Contains(err.Error(), "refund of 1 captured charge(s) failed") {
		t.Fatalf("expected refund failure in error, got %v", err)
	}
}

func TestSimulatedGateway(t *testing.T) {
	g := SimulatedGateway{}
	id, err := g.Charge(context.Background(), ChargeRequest{Amount: decimal.RequireFromString("10.00"), Currency: "usd"})
	if err != nil || !strings.HasPrefix(id, "sim_") {
		t.Fatalf("expected simulated approval, got id=%q err=%v", id, err)
	}
	if _, err := g.Charge(context.Background(), ChargeRequest{Amount: decimal.Zero}); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected zero amount declined, got %v", err)
	}
	if err := g.Refund(context.Background(), id, "k"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
}

func TestMinorUnits(t *testing.T) {
	if got := minorUnits(decimal.RequireFromString("130.00")); got != 13000 {
		t.Fatalf("expected 13000, got %d", got)
	}
	if got := minorUnits(decimal.RequireFromString("0.105")); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}
