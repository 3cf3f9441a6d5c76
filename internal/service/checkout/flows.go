package checkout

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"marketplace/internal/domain"
)

// CardInput is the card form. Only the last four digits are kept.
type CardInput struct {
	Number string `json:"card_number"`
	Holder string `json:"card_holder"`
	Expiry string `json:"expiry_date"`
	CVV    string `json:"cvv"`
}

// Proof is an uploaded proof-of-payment file for bank transfers.
type Proof struct {
	Filename string
	Size     int64
	Body     io.Reader
}

var proofExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// validateCard returns the last four digits of a well-formed card.
func validateCard(c *CardInput) (string, error) {
	if c == nil {
		return "", domain.ErrInvalidCardDetails
	}
	number := strings.ReplaceAll(c.Number, " ", "")
	if len(number) != 16 {
		return "", domain.ErrInvalidCardDetails
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return "", domain.ErrInvalidCardDetails
		}
	}
	if strings.TrimSpace(c.Holder) == "" || strings.TrimSpace(c.Expiry) == "" || strings.TrimSpace(c.CVV) == "" {
		return "", domain.ErrInvalidCardDetails
	}
	return number[12:], nil
}

func validateProof(p *Proof, maxBytes int64) error {
	if p == nil || p.Body == nil || strings.TrimSpace(p.Filename) == "" {
		return domain.ErrInvalidProofOfPayment
	}
	if !proofExtensions[strings.ToLower(filepath.Ext(p.Filename))] {
		return domain.ErrInvalidProofOfPayment
	}
	if p.Size > maxBytes {
		return domain.ErrProofTooLarge
	}
	return nil
}

// capturedCharge is a gateway charge taken while the checkout transaction
// was still open.
type capturedCharge struct {
	OrderID       string
	TransactionID string
}

// cardSettlement charges each order separately; a decline aborts the whole
// checkout transaction. Every successful charge is appended to captured so
// the caller can refund it if the transaction does not commit.
func (s *Service) cardSettlement(checkoutKey, lastFour string, captured *[]capturedCharge) func(ctx context.Context, orders []domain.Order) ([]domain.Payment, error) {
	return func(ctx context.Context, orders []domain.Order) ([]domain.Payment, error) {
		payments := make([]domain.Payment, 0, len(orders))
		for _, o := range orders {
			txID, err := s.gateway.Charge(ctx, ChargeRequest{
				Amount:         o.TotalAmount,
				Currency:       s.cfg.Currency,
				IdempotencyKey: checkoutKey + ":" + o.ID,
				Description:    "order " + o.ID + " at " + o.BusinessName,
			})
			if err != nil {
				s.logger.Printf("checkout: charge order_id=%s error=%v", o.ID, err)
				return nil, err
			}
			*captured = append(*captured, capturedCharge{OrderID: o.ID, TransactionID: txID})
			last := lastFour
			payments = append(payments, domain.Payment{
				Method:        domain.PaymentCreditCard,
				Amount:        o.TotalAmount,
				Status:        domain.PaymentCompleted,
				TransactionID: txID,
				CardLastFour:  &last,
			})
		}
		return payments, nil
	}
}

// refundCaptured reverses charges of a checkout that did not commit. It runs
// detached from the request context.
func (s *Service) refundCaptured(ctx context.Context, checkoutKey string, captured []capturedCharge) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, c := range captured {
		if err := s.gateway.Refund(ctx, c.TransactionID, checkoutKey+":"+c.OrderID+":refund"); err != nil {
			s.logger.Printf("checkout: refund order_id=%s transaction_id=%s error=%v", c.OrderID, c.TransactionID, err)
			errs = append(errs, err)
			continue
		}
		s.logger.Printf("checkout: refunded order_id=%s transaction_id=%s", c.OrderID, c.TransactionID)
	}
	return errors.Join(errs...)
}

func pendingSettlement(method domain.PaymentMethod, proofRef *string) func(ctx context.Context, orders []domain.Order) ([]domain.Payment, error) {
	return func(ctx context.Context, orders []domain.Order) ([]domain.Payment, error) {
		payments := make([]domain.Payment, 0, len(orders))
		for _, o := range orders {
			payments = append(payments, domain.Payment{
				Method:         method,
				Amount:         o.TotalAmount,
				Status:         domain.PaymentPending,
				ProofOfPayment: proofRef,
			})
		}
		return payments, nil
	}
}
