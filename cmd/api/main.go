package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/httpserver"
	"marketplace/internal/migrate"
	businessrepo "marketplace/internal/repository/business"
	cartrepo "marketplace/internal/repository/cart"
	categoryrepo "marketplace/internal/repository/category"
	feerepo "marketplace/internal/repository/fee"
	orderrepo "marketplace/internal/repository/order"
	paymentrepo "marketplace/internal/repository/payment"
	productrepo "marketplace/internal/repository/product"
	reviewrepo "marketplace/internal/repository/review"
	userrepo "marketplace/internal/repository/user"
	authsvc "marketplace/internal/service/auth"
	businesssvc "marketplace/internal/service/business"
	cartsvc "marketplace/internal/service/cart"
	catalogsvc "marketplace/internal/service/catalog"
	checkoutsvc "marketplace/internal/service/checkout"
	feesvc "marketplace/internal/service/fee"
	ordersvc "marketplace/internal/service/order"
	reviewsvc "marketplace/internal/service/review"
	"marketplace/internal/session"
	"marketplace/internal/storage"

	"github.com/redis/go-redis/v9"
)

type sessionStore interface {
	session.DraftStore
	session.Locker
}

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	sessions, closeSessions := newSessionStore(ctx, cfg, logger)
	defer closeSessions()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	proofs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("init proof storage: %v", err)
	}

	userRepo := userrepo.NewPostgres(dbpool, logger)
	businessRepo := businessrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	paymentRepo := paymentrepo.NewPostgres(dbpool, logger)
	feeRepo := feerepo.NewPostgres(dbpool, logger)
	reviewRepo := reviewrepo.NewPostgres(dbpool, logger)

	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Carts:   cartRepo,
		Orders:  orderRepo,
		Gateway: newGateway(cfg, logger),
		Proofs:  proofs,
		Drafts:  sessions,
		Locker:  sessions,
		Events:  publisher,
	}, checkoutsvc.Config{
		ProofMaxBytes: cfg.ProofMaxBytes,
		LockTTL:       cfg.CheckoutLock,
		Currency:      cfg.Currency,
	}, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:           authsvc.New(userRepo, cfg.JWTSecret, cfg.JWTTTL),
		Businesses:     businesssvc.New(businessRepo, userRepo, publisher, logger),
		Catalog:        catalogsvc.New(productRepo, categoryRepo),
		Cart:           cartsvc.New(cartRepo, productRepo),
		Checkout:       checkoutService,
		Orders:         ordersvc.New(orderRepo, paymentRepo, publisher, logger),
		Fees:           feesvc.New(feeRepo, businessRepo, logger),
		Reviews:        reviewsvc.New(reviewRepo, productRepo, businessRepo, logger),
		ProofMaxBytes:  cfg.ProofMaxBytes,
		AllowedOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// newSessionStore uses Redis when REDIS_ADDR is set so drafts and checkout
// locks are shared between API instances.
func newSessionStore(ctx context.Context, cfg config.Config, logger *log.Logger) (sessionStore, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("session: REDIS_ADDR unset, using in-memory store")
		return session.NewMemory(cfg.DraftTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	return session.NewRedis(client, cfg.DraftTTL), func() {
		if err := client.Close(); err != nil {
			logger.Printf("close redis: %v", err)
		}
	}
}

func newPublisher(cfg config.Config, logger *log.Logger) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Printf("events: KAFKA_BROKERS unset, logging events only")
		return events.NewLogPublisher(logger), func() {}
	}
	pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.Fatalf("connect to kafka: %v", err)
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Printf("close kafka producer: %v", err)
		}
	}
}

func newGateway(cfg config.Config, logger *log.Logger) checkoutsvc.Gateway {
	if cfg.PaymentGateway != "stripe" {
		return checkoutsvc.SimulatedGateway{}
	}
	if cfg.StripeSecretKey == "" {
		logger.Fatalf("PAYMENT_GATEWAY=stripe requires STRIPE_SECRET_KEY")
	}
	return checkoutsvc.NewStripeGateway(cfg.StripeSecretKey, cfg.StripePaymentMethod, logger)
}
