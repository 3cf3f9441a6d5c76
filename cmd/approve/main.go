package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/events"
	businessrepo "marketplace/internal/repository/business"
	userrepo "marketplace/internal/repository/user"
	businesssvc "marketplace/internal/service/business"
)

func main() {
	var (
		list  bool
		email string
	)
	flag.BoolVar(&list, "list", false, "List business owners waiting for approval")
	flag.StringVar(&email, "email", "", "Approve the business owner with this email")
	flag.Parse()

	if !list && email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[approve] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgres(pool, logger)
	svc := businesssvc.New(businessrepo.NewPostgres(pool, logger), users, events.NewLogPublisher(logger), logger)

	if list {
		pending, err := svc.ListPendingOwners(ctx)
		if err != nil {
			logger.Fatalf("list pending owners: %v", err)
		}
		if len(pending) == 0 {
			fmt.Println("No owners awaiting approval")
		}
		for _, u := range pending {
			fmt.Printf("%s\t%s\t%s\n", u.ID, u.Email, u.CreatedAt.Format("2006-01-02"))
		}
	}

	if email == "" {
		return
	}
	u, err := users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		logger.Fatalf("find user %q: %v", email, err)
	}
	approved, err := svc.ApproveOwner(ctx, u.ID)
	if err != nil {
		logger.Fatalf("approve %q: %v", email, err)
	}
	fmt.Printf("Approved %s (%s)\n", approved.Email, approved.ID)
}
