package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// ChargeRequest is one card charge for one order.
type ChargeRequest struct {
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Description    string
}

// Gateway captures card payments. Implementations return
// domain.ErrPaymentDeclined when the card is refused. Refund reverses a
// captured charge in full.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (transactionID string, err error)
	Refund(ctx context.Context, transactionID, idempotencyKey string) error
}

// SimulatedGateway approves every charge immediately.
type SimulatedGateway struct{}

func (SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", domain.ErrPaymentDeclined
	}
	return "sim_" + uuid.NewString(), nil
}

func (SimulatedGateway) Refund(ctx context.Context, transactionID, idempotencyKey string) error {
	return nil
}

// StripeGateway confirms a PaymentIntent per charge against a configured
// payment method. Card numbers typed by the customer never reach Stripe.
type StripeGateway struct {
	api           *client.API
	paymentMethod string
	logger        *log.Logger
}

func NewStripeGateway(secretKey, paymentMethod string, logger *log.Logger) *StripeGateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		paymentMethod: paymentMethod,
		logger:        logger,
	}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minorUnits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(g.paymentMethod),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.logger.Printf("stripe: charge declined key=%s code=%s", req.IdempotencyKey, stripeErr.Code)
			return "", domain.ErrPaymentDeclined
		}
		return "", fmt.Errorf("stripe charge: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.logger.Printf("stripe: charge key=%s status=%s", req.IdempotencyKey, pi.Status)
		return "", domain.ErrPaymentDeclined
	}
	return pi.ID, nil
}

func (g *StripeGateway) Refund(ctx context.Context, transactionID, idempotencyKey string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return fmt.Errorf("stripe refund %s: %w", transactionID, err)
	}
	g.logger.Printf("stripe: refund payment_intent=%s refund=%s status=%s", transactionID, r.ID, r.Status)
	return nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
