package domain

import "github.com/shopspring/decimal"

var (
	// TaxRate is applied for display only; orders store pre-tax totals.
	TaxRate = decimal.RequireFromString("0.15")
	// AdminFeeRate is the platform levy on fee-eligible order revenue.
	AdminFeeRate = decimal.RequireFromString("0.05")
)

// Totals is the subtotal/tax/total triple shown for carts and orders.
type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	TotalWithTax decimal.Decimal
}

func TotalsFor(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		TotalWithTax: subtotal.Add(tax),
	}
}

// AdminFee returns 5% of revenue rounded to cents.
func AdminFee(revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(AdminFeeRate).Round(2)
}
