package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         string
	CustomerID string
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem carries the product's current price and owner; nothing is
// snapshotted until checkout.
type CartItem struct {
	ID          string
	CartID      string
	ProductID   string
	ProductName string
	BusinessID  string
	Business    string
	UnitPrice   decimal.Decimal
	Quantity    int
	AddedAt     time.Time
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// BusinessGroup is the slice of a cart that becomes one order.
type BusinessGroup struct {
	BusinessID string
	Business   string
	Items      []CartItem
}

func (g BusinessGroup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range g.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// SplitByBusiness partitions items by owning business, keeping the order in
// which each business first appears.
func SplitByBusiness(items []CartItem) []BusinessGroup {
	index := make(map[string]int)
	var groups []BusinessGroup
	for _, item := range items {
		pos, ok := index[item.BusinessID]
		if !ok {
			pos = len(groups)
			index[item.BusinessID] = pos
			groups = append(groups, BusinessGroup{BusinessID: item.BusinessID, Business: item.Business})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}
