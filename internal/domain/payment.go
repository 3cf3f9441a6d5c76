package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// CanVerify reports whether an operator may move a payment from s to next.
func (s PaymentStatus) CanVerify(next PaymentStatus) bool {
	if s != PaymentPending && s != PaymentProcessing {
		return false
	}
	switch next {
	case PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

type Payment struct {
	ID             string
	OrderID        string
	Method         PaymentMethod
	Amount         decimal.Decimal
	Status         PaymentStatus
	TransactionID  string
	ProofOfPayment *string
	CardLastFour   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
