package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/importer"
	"marketplace/internal/repository/business"
	"marketplace/internal/repository/category"
	"marketplace/internal/repository/product"
)

func main() {
	var (
		filePath   string
		businessID string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,description,category,price,stock_quantity)")
	flag.StringVar(&businessID, "business", "", "ID of the business that owns the products")
	flag.Parse()

	if filePath == "" || businessID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	b, err := business.NewPostgres(pool, logger).GetByID(ctx, businessID)
	if err != nil {
		logger.Fatalf("load business %q: %v", businessID, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), category.NewPostgres(pool), b.ID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}

	fmt.Printf("Imported %d products into %s in %s\n", count, b.Name, time.Since(start).Truncate(time.Millisecond))
}
