package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string
	BusinessID    string
	CategoryID    *string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
