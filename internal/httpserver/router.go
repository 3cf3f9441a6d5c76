package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"marketplace/internal/domain"
	authsvc "marketplace/internal/service/auth"
	businesssvc "marketplace/internal/service/business"
	cartsvc "marketplace/internal/service/cart"
	catalogsvc "marketplace/internal/service/catalog"
	checkoutsvc "marketplace/internal/service/checkout"
	reviewsvc "marketplace/internal/service/review"
	"marketplace/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	AccessTTLSeconds() int
}

type BusinessService interface {
	Register(ctx context.Context, owner domain.User, in businesssvc.RegisterInput) (*domain.Business, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.Business, error)
	ListAll(ctx context.Context) ([]domain.Business, error)
	Resolve(ctx context.Context, owner domain.User, businessID string) (*domain.Business, error)
	Delete(ctx context.Context, actor domain.User, businessID string) (int, error)
	ListPendingOwners(ctx context.Context) ([]domain.User, error)
	ApproveOwner(ctx context.Context, userID string) (*domain.User, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context, categoryID, businessID string) ([]domain.Product, error)
	ListBusinessProducts(ctx context.Context, businessID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, businessID string, in catalogsvc.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, businessID, productID string, in catalogsvc.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, businessID, productID string) error
}

type CartService interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	AddProduct(ctx context.Context, customerID, productID string) (*domain.Cart, error)
	UpdateItem(ctx context.Context, customerID, itemID string, in cartsvc.UpdateInput) (*domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error)
}

type CheckoutService interface {
	Preview(ctx context.Context, customerID string) (*checkoutsvc.Preview, error)
	SaveDraft(ctx context.Context, customerID string, d session.Draft) error
	Checkout(ctx context.Context, customerID string, in checkoutsvc.Input) ([]domain.Order, error)
}

type OrderService interface {
	Transition(ctx context.Context, owner domain.User, business domain.Business, orderID, rawAction string) (*domain.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	GetForCustomer(ctx context.Context, customerID, orderID string) (*domain.Order, error)
	ListForBusiness(ctx context.Context, businessID string, f domain.OrderFilter) ([]domain.Order, error)
	GetForBusiness(ctx context.Context, businessID, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	GetForAdmin(ctx context.Context, orderID string) (*domain.Order, error)
	AdminTransition(ctx context.Context, orderID, rawAction string) (*domain.Order, error)
	VerifyPayment(ctx context.Context, paymentID, rawStatus string) (*domain.Payment, error)
}

type FeeService interface {
	Period(month, from, to string) (domain.Period, error)
	Ledger(ctx context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error)
	LedgersForPeriod(ctx context.Context, p domain.Period) ([]domain.AdminFeePayment, error)
	MarkPaid(ctx context.Context, businessID string, p domain.Period, method string) (*domain.AdminFeePayment, error)
}

type ReviewService interface {
	RateProduct(ctx context.Context, reviewer domain.User, productID string, in reviewsvc.RateInput) (*domain.Review, error)
	RateBusiness(ctx context.Context, reviewer domain.User, businessID string, in reviewsvc.RateInput) (*domain.Review, error)
	ForProduct(ctx context.Context, productID string) (*reviewsvc.Listing, error)
	ForBusiness(ctx context.Context, businessID string) (*reviewsvc.Listing, error)
	React(ctx context.Context, user domain.User, reviewID, rawAction string) (domain.ReactionOutcome, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	Delete(ctx context.Context, reviewID string) error
}

// Deps groups the services behind the API.
type Deps struct {
	Auth       AuthService
	Businesses BusinessService
	Catalog    CatalogService
	Cart       CartService
	Checkout   CheckoutService
	Orders     OrderService
	Fees       FeeService
	Reviews    ReviewService

	// ProofMaxBytes bounds multipart checkout bodies; the checkout service
	// enforces the exact file limit.
	ProofMaxBytes int64
	// AllowedOrigins enables CORS for the listed origins; empty allows all.
	AllowedOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Auth == nil:
		return errors.New("auth service required")
	case d.Businesses == nil:
		return errors.New("business service required")
	case d.Catalog == nil:
		return errors.New("catalog service required")
	case d.Cart == nil:
		return errors.New("cart service required")
	case d.Checkout == nil:
		return errors.New("checkout service required")
	case d.Orders == nil:
		return errors.New("order service required")
	case d.Fees == nil:
		return errors.New("fee service required")
	case d.Reviews == nil:
		return errors.New("review service required")
	}
	return nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.ProofMaxBytes <= 0 {
		deps.ProofMaxBytes = 5 * 1024 * 1024
	}
	h := &handlers{deps: deps, logger: logger}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)
	api.GET("/products/:id/reviews", h.productReviews)
	api.GET("/businesses/:id/reviews", h.businessReviews)

	authed := api.Group("", h.authenticate)
	authed.GET("/me", h.me)

	me := authed.Group("/me")
	me.GET("/cart", h.getCart)
	me.POST("/cart/items", h.addCartItem)
	me.PATCH("/cart/items/:itemId", h.updateCartItem)
	me.DELETE("/cart/items/:itemId", h.removeCartItem)
	me.GET("/checkout", h.checkoutPreview)
	me.PUT("/checkout", h.saveCheckoutDraft)
	me.POST("/checkout", h.submitCheckout)
	me.GET("/orders", h.listMyOrders)
	me.GET("/orders/:id", h.getMyOrder)

	authed.POST("/businesses", h.registerBusiness)
	authed.DELETE("/businesses/:id", requireRole(domain.RoleBusinessOwner, domain.RoleAdmin), h.deleteBusiness)
	authed.POST("/businesses/:id/reviews", h.rateBusiness)
	authed.POST("/products/:id/reviews", h.rateProduct)
	authed.POST("/reviews/:id/reactions", h.reactToReview)

	owner := authed.Group("/business", requireRole(domain.RoleBusinessOwner))
	owner.GET("/mine", h.listMyBusinesses)

	scoped := owner.Group("", h.activeBusiness)
	scoped.GET("/products", h.listBusinessProducts)
	scoped.POST("/products", h.createProduct)
	scoped.PUT("/products/:id", h.updateProduct)
	scoped.DELETE("/products/:id", h.deleteProduct)
	scoped.GET("/orders", h.listBusinessOrders)
	scoped.GET("/orders/:id", h.getBusinessOrder)
	scoped.POST("/orders/:id/actions", h.transitionOrder)
	scoped.GET("/fees", h.businessFees)
	scoped.GET("/reviews", h.myBusinessReviews)

	admin := authed.Group("/admin", requireRole(domain.RoleAdmin))
	admin.GET("/owners/pending", h.listPendingOwners)
	admin.POST("/owners/:id/approve", h.approveOwner)
	admin.GET("/businesses", h.listAllBusinesses)
	admin.GET("/orders", h.listAllOrders)
	admin.GET("/orders/:id", h.getAnyOrder)
	admin.POST("/orders/:id/actions", h.moderateOrder)
	admin.POST("/payments/:id/verify", h.verifyPayment)
	admin.GET("/fees", h.listFees)
	admin.POST("/fees/:id/paid", h.markFeePaid)
	admin.GET("/reviews", h.listAllReviews)
	admin.DELETE("/reviews/:id", h.deleteReview)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", businessHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
