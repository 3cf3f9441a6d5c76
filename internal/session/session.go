// Package session keeps short-lived checkout state: the draft a customer
// fills in before submitting, and a per-customer lock around submission.
package session

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain"
)

// ErrNoDraft is returned by Load when nothing is saved or the draft expired.
var ErrNoDraft = errors.New("no checkout draft")

// Draft holds the checkout form between requests. Card details are never
// part of it.
type Draft struct {
	PaymentMethod  domain.PaymentMethod  `json:"payment_method,omitempty"`
	DeliveryOption domain.DeliveryOption `json:"delivery_option,omitempty"`
	Street         string                `json:"street,omitempty"`
	City           string                `json:"city,omitempty"`
	PostalCode     string                `json:"postal_code,omitempty"`
	Phone          string                `json:"phone,omitempty"`
}

type DraftStore interface {
	Save(ctx context.Context, customerID string, d Draft) error
	Load(ctx context.Context, customerID string) (Draft, error)
	Clear(ctx context.Context, customerID string) error
}

// Locker hands out exclusive, expiring locks. Acquire returns
// domain.ErrCheckoutInProgress when key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

func draftKey(customerID string) string {
	return "checkout:draft:" + customerID
}

func lockKey(key string) string {
	return "checkout:lock:" + key
}
