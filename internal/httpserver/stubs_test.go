package httpserver

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/domain"
	authsvc "marketplace/internal/service/auth"
	businesssvc "marketplace/internal/service/business"
	cartsvc "marketplace/internal/service/cart"
	catalogsvc "marketplace/internal/service/catalog"
	checkoutsvc "marketplace/internal/service/checkout"
	reviewsvc "marketplace/internal/service/review"
	"marketplace/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

var (
	clientUser   = domain.User{ID: "client-1", Email: "client@example.com", Role: domain.RoleClient, IsApproved: true}
	ownerUser    = domain.User{ID: "owner-1", Email: "owner@example.com", Role: domain.RoleBusinessOwner, IsApproved: true}
	pendingOwner = domain.User{ID: "owner-2", Email: "pending@example.com", Role: domain.RoleBusinessOwner}
	adminUser    = domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, IsApproved: true}
)

type stubAuthSvc struct {
	tokens   map[string]domain.User
	loginErr error
	regErr   error
}

func newStubAuth() *stubAuthSvc {
	return &stubAuthSvc{tokens: map[string]domain.User{
		"client":  clientUser,
		"owner":   ownerUser,
		"pending": pendingOwner,
		"admin":   adminUser,
	}}
}

func (s *stubAuthSvc) Register(_ context.Context, in authsvc.RegisterInput) (*domain.User, error) {
	if s.regErr != nil {
		return nil, s.regErr
	}
	return &domain.User{ID: "new-user", Email: in.Email, Role: domain.RoleClient, IsApproved: true}, nil
}

func (s *stubAuthSvc) Login(_ context.Context, email, _ string) (*domain.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return &domain.User{ID: "client-1", Email: email, Role: domain.RoleClient}, "signed-token", nil
}

func (s *stubAuthSvc) Authenticate(_ context.Context, token string) (*domain.User, error) {
	u, ok := s.tokens[token]
	if !ok {
		return nil, authsvc.ErrInvalidToken
	}
	return &u, nil
}

func (s *stubAuthSvc) AccessTTLSeconds() int {
	return 3600
}

type stubBusinessSvc struct {
	business    domain.Business
	resolvedID  string
	resolveErr  error
	deleteCount int
	deleteErr   error
}

func (s *stubBusinessSvc) Register(_ context.Context, owner domain.User, in businesssvc.RegisterInput) (*domain.Business, error) {
	return &domain.Business{ID: "biz-new", OwnerID: owner.ID, Name: in.Name, IsActive: true}, nil
}

func (s *stubBusinessSvc) ListMine(context.Context, string) ([]domain.Business, error) {
	return []domain.Business{s.business}, nil
}

func (s *stubBusinessSvc) ListAll(context.Context) ([]domain.Business, error) {
	return []domain.Business{s.business}, nil
}

func (s *stubBusinessSvc) Resolve(_ context.Context, _ domain.User, businessID string) (*domain.Business, error) {
	s.resolvedID = businessID
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	b := s.business
	return &b, nil
}

func (s *stubBusinessSvc) Delete(context.Context, domain.User, string) (int, error) {
	return s.deleteCount, s.deleteErr
}

func (s *stubBusinessSvc) ListPendingOwners(context.Context) ([]domain.User, error) {
	return []domain.User{pendingOwner}, nil
}

func (s *stubBusinessSvc) ApproveOwner(_ context.Context, userID string) (*domain.User, error) {
	u := pendingOwner
	u.ID = userID
	u.IsApproved = true
	return &u, nil
}

type stubCatalogSvc struct {
	products  []domain.Product
	createErr error
}

func (s *stubCatalogSvc) ListProducts(context.Context, string, string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubCatalogSvc) ListBusinessProducts(context.Context, string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubCatalogSvc) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalogSvc) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "cat-1", Name: "Groceries"}}, nil
}

func (s *stubCatalogSvc) CreateProduct(_ context.Context, businessID string, in catalogsvc.ProductInput) (*domain.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Product{ID: "prod-new", BusinessID: businessID, Name: in.Name, Price: decimal.RequireFromString(in.Price)}, nil
}

func (s *stubCatalogSvc) UpdateProduct(_ context.Context, businessID, productID string, in catalogsvc.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: productID, BusinessID: businessID, Name: in.Name}, nil
}

func (s *stubCatalogSvc) DeleteProduct(context.Context, string, string) error {
	return nil
}

type stubCartSvc struct {
	cart *domain.Cart
	err  error
}

func (s *stubCartSvc) Get(context.Context, string) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartSvc) AddProduct(context.Context, string, string) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartSvc) UpdateItem(context.Context, string, string, cartsvc.UpdateInput) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartSvc) RemoveItem(context.Context, string, string) (*domain.Cart, error) {
	return s.cart, s.err
}

type stubCheckoutSvc struct {
	input      checkoutsvc.Input
	customerID string
	proofBody  string
	orders     []domain.Order
	err        error
	draft      session.Draft
}

func (s *stubCheckoutSvc) Preview(context.Context, string) (*checkoutsvc.Preview, error) {
	if s.err != nil {
		return nil, s.err
	}
	cart := sampleCart()
	return &checkoutsvc.Preview{Cart: &cart, Totals: domain.TotalsFor(cart.Subtotal()), Draft: s.draft}, nil
}

func (s *stubCheckoutSvc) SaveDraft(_ context.Context, _ string, d session.Draft) error {
	s.draft = d
	return nil
}

func (s *stubCheckoutSvc) Checkout(_ context.Context, customerID string, in checkoutsvc.Input) ([]domain.Order, error) {
	s.customerID = customerID
	s.input = in
	if in.Proof != nil {
		b, _ := io.ReadAll(in.Proof.Body)
		s.proofBody = string(b)
	}
	return s.orders, s.err
}

type stubOrderSvc struct {
	order      *domain.Order
	err        error
	action     string
	filter     domain.OrderFilter
	businessID string
	orderID    string
}

func (s *stubOrderSvc) Transition(_ context.Context, _ domain.User, business domain.Business, _ string, rawAction string) (*domain.Order, error) {
	s.action = rawAction
	s.businessID = business.ID
	return s.order, s.err
}

func (s *stubOrderSvc) ListForCustomer(context.Context, string) ([]domain.Order, error) {
	if s.order == nil {
		return nil, s.err
	}
	return []domain.Order{*s.order}, s.err
}

func (s *stubOrderSvc) GetForCustomer(context.Context, string, string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderSvc) ListForBusiness(_ context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error) {
	s.businessID = businessID
	s.filter = f
	return nil, s.err
}

func (s *stubOrderSvc) GetForBusiness(context.Context, string, string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderSvc) ListAll(_ context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	s.filter = f
	return nil, s.err
}

func (s *stubOrderSvc) GetForAdmin(_ context.Context, orderID string) (*domain.Order, error) {
	s.orderID = orderID
	return s.order, s.err
}

func (s *stubOrderSvc) AdminTransition(_ context.Context, orderID, rawAction string) (*domain.Order, error) {
	s.orderID = orderID
	s.action = rawAction
	return s.order, s.err
}

func (s *stubOrderSvc) VerifyPayment(_ context.Context, paymentID, rawStatus string) (*domain.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Payment{ID: paymentID, Status: domain.PaymentStatus(rawStatus), Amount: decimal.RequireFromString("130")}, nil
}

type stubFeeSvc struct {
	method string
	err    error
}

func (s *stubFeeSvc) Period(month, _, _ string) (domain.Period, error) {
	return domain.ParseMonth(month, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
}

func (s *stubFeeSvc) Ledger(_ context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error) {
	return &domain.AdminFeePayment{
		BusinessID:     businessID,
		PeriodStart:    p.Start,
		PeriodEnd:      p.End,
		TotalRevenue:   decimal.RequireFromString("300"),
		AdminFeeAmount: decimal.RequireFromString("15"),
	}, s.err
}

func (s *stubFeeSvc) LedgersForPeriod(_ context.Context, p domain.Period) ([]domain.AdminFeePayment, error) {
	l, err := s.Ledger(context.Background(), "biz-1", p)
	if err != nil {
		return nil, err
	}
	return []domain.AdminFeePayment{*l}, nil
}

func (s *stubFeeSvc) MarkPaid(_ context.Context, businessID string, p domain.Period, method string) (*domain.AdminFeePayment, error) {
	s.method = method
	l, err := s.Ledger(context.Background(), businessID, p)
	if err != nil {
		return nil, err
	}
	l.IsPaid = true
	l.PaymentMethod = &method
	return l, nil
}

type stubReviewSvc struct {
	rated    []reviewsvc.RateInput
	target   domain.ReviewTarget
	reaction string
	deleted  string
	err      error
}

func (s *stubReviewSvc) rate(reviewer domain.User, target domain.ReviewTarget, targetID string, in reviewsvc.RateInput) (*domain.Review, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.rated = append(s.rated, in)
	s.target = target
	return &domain.Review{ID: "review-1", ReviewerID: reviewer.ID, Target: target, TargetID: targetID, Rating: in.Rating, Comment: in.Comment}, nil
}

func (s *stubReviewSvc) RateProduct(_ context.Context, reviewer domain.User, productID string, in reviewsvc.RateInput) (*domain.Review, error) {
	return s.rate(reviewer, domain.ReviewTargetProduct, productID, in)
}

func (s *stubReviewSvc) RateBusiness(_ context.Context, reviewer domain.User, businessID string, in reviewsvc.RateInput) (*domain.Review, error) {
	return s.rate(reviewer, domain.ReviewTargetBusiness, businessID, in)
}

func (s *stubReviewSvc) listing(target domain.ReviewTarget, targetID string) (*reviewsvc.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.target = target
	return &reviewsvc.Listing{
		Summary: domain.RatingSummary{Count: 2, Average: decimal.RequireFromString("4.5")},
		Reviews: []domain.Review{
			{ID: "r-1", ReviewerName: "ann", Target: target, TargetID: targetID, Rating: 5, Likes: 2},
			{ID: "r-2", ReviewerName: "bob", Target: target, TargetID: targetID, Rating: 4},
		},
	}, nil
}

func (s *stubReviewSvc) ForProduct(_ context.Context, productID string) (*reviewsvc.Listing, error) {
	return s.listing(domain.ReviewTargetProduct, productID)
}

func (s *stubReviewSvc) ForBusiness(_ context.Context, businessID string) (*reviewsvc.Listing, error) {
	return s.listing(domain.ReviewTargetBusiness, businessID)
}

func (s *stubReviewSvc) React(_ context.Context, _ domain.User, _ string, rawAction string) (domain.ReactionOutcome, error) {
	if s.err != nil {
		return domain.ReactionOutcome{}, s.err
	}
	s.reaction = rawAction
	return domain.ReactionOutcome{Outcome: "liked", Likes: 1}, nil
}

func (s *stubReviewSvc) ListAll(_ context.Context) ([]domain.Review, error) {
	l, err := s.listing(domain.ReviewTargetBusiness, "biz-1")
	if err != nil {
		return nil, err
	}
	return l.Reviews, nil
}

func (s *stubReviewSvc) Delete(_ context.Context, reviewID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = reviewID
	return nil
}

type testServices struct {
	auth       *stubAuthSvc
	businesses *stubBusinessSvc
	catalog    *stubCatalogSvc
	cart       *stubCartSvc
	checkout   *stubCheckoutSvc
	orders     *stubOrderSvc
	fees       *stubFeeSvc
	reviews    *stubReviewSvc
}

func newTestServices() *testServices {
	cart := sampleCart()
	return &testServices{
		auth:       newStubAuth(),
		businesses: &stubBusinessSvc{business: domain.Business{ID: "biz-1", OwnerID: ownerUser.ID, Name: "Bakery"}},
		catalog:    &stubCatalogSvc{},
		cart:       &stubCartSvc{cart: &cart},
		checkout:   &stubCheckoutSvc{},
		orders:     &stubOrderSvc{},
		fees:       &stubFeeSvc{},
		reviews:    &stubReviewSvc{},
	}
}

func (s *testServices) deps() Deps {
	return Deps{
		Auth:          s.auth,
		Businesses:    s.businesses,
		Catalog:       s.catalog,
		Cart:          s.cart,
		Checkout:      s.checkout,
		Orders:        s.orders,
		Fees:          s.fees,
		Reviews:       s.reviews,
		ProofMaxBytes: 1024,
	}
}

func (s *testServices) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, s.deps())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func sampleCart() domain.Cart {
	return domain.Cart{
		ID:         "cart-1",
		CustomerID: clientUser.ID,
		Items: []domain.CartItem{
			{ID: "item-1", ProductID: "p-a", ProductName: "Bread", BusinessID: "biz-1", Business: "Bakery", UnitPrice: decimal.RequireFromString("50"), Quantity: 2},
			{ID: "item-2", ProductID: "p-b", ProductName: "Soap", BusinessID: "biz-2", Business: "Shop", UnitPrice: decimal.RequireFromString("30"), Quantity: 1},
		},
	}
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rec.Code, rec.Body.String())
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(rec.Body.String(), f) {
			t.Fatalf("expected body to contain %s, got %s", f, rec.Body.String())
		}
	}
}
