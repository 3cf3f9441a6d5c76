package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	// OrderDelivered is never produced by a lifecycle action but is counted
	// as revenue when present in storage.
	OrderDelivered OrderStatus = "delivered"
)

// OpenOrderStatuses are the states a business deletion force-cancels.
var OpenOrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderInProgress}

// FeeEligibleStatuses are the states whose totals count as revenue.
var FeeEligibleStatuses = []OrderStatus{OrderCompleted, OrderDelivered}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderDelivered
}

type OrderAction string

const (
	ActionConfirm         OrderAction = "confirm"
	ActionStartProcessing OrderAction = "start_processing"
	ActionComplete        OrderAction = "complete"
	ActionCancel          OrderAction = "cancel"
)

var transitions = map[OrderAction]struct {
	from []OrderStatus
	to   OrderStatus
}{
	ActionConfirm:         {from: []OrderStatus{OrderPending}, to: OrderConfirmed},
	ActionStartProcessing: {from: []OrderStatus{OrderPending, OrderConfirmed}, to: OrderInProgress},
	ActionComplete:        {from: []OrderStatus{OrderPending, OrderConfirmed, OrderInProgress}, to: OrderCompleted},
	ActionCancel:          {from: []OrderStatus{OrderPending, OrderConfirmed, OrderInProgress}, to: OrderCancelled},
}

// ParseOrderAction normalises user input; unknown actions are rejected.
func ParseOrderAction(raw string) (OrderAction, error) {
	action := OrderAction(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transitions[action]; !ok {
		return "", ErrInvalidTransition
	}
	return action, nil
}

// NextStatus applies action to current.
func NextStatus(current OrderStatus, action OrderAction) (OrderStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", ErrInvalidTransition
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", ErrInvalidTransition
}

type DeliveryOption string

const (
	DeliveryPickup   DeliveryOption = "pickup"
	DeliveryDelivery DeliveryOption = "delivery"
)

type Order struct {
	ID              string
	CheckoutID      string
	CustomerID      string
	BusinessID      *string
	BusinessName    string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	DeliveryOption  DeliveryOption
	DeliveryAddress *string
	DeliveryPhone   *string
	Items           []OrderItem
	Payments        []Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o Order) BelongsTo(businessID string) bool {
	return o.BusinessID != nil && *o.BusinessID == businessID
}

func (o Order) Totals() Totals {
	return TotalsFor(o.TotalAmount)
}

// OrderItem.Price is copied from the product when the order is placed and
// never updated afterwards.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   *string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderFilter struct {
	Status   *OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}
