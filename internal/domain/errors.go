package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Checkout errors.
	ErrEmptyCart              = errors.New("cart is empty")
	ErrMissingPaymentMethod   = errors.New("payment method required")
	ErrInvalidDeliveryOption  = errors.New("invalid delivery option")
	ErrMissingDeliveryDetails = errors.New("delivery address and phone required")
	ErrInvalidCardDetails     = errors.New("invalid card details")
	ErrInvalidProofOfPayment  = errors.New("invalid proof of payment")
	ErrProofTooLarge          = errors.New("proof of payment too large")
	ErrPaymentDeclined        = errors.New("payment declined")
	ErrCheckoutInProgress     = errors.New("checkout already in progress")
	ErrDuplicateCheckout      = errors.New("checkout already submitted")

	// Order lifecycle errors.
	ErrOrderNotFound     = errors.New("order not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValidationError reports unusable caller input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func Invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
