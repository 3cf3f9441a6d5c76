package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"marketplace/internal/domain"
	checkoutsvc "marketplace/internal/service/checkout"
	"marketplace/internal/session"

	"github.com/gin-gonic/gin"
)

const proofField = "proof_of_payment"

type checkoutRequest struct {
	PaymentMethod  string                 `json:"payment_method" form:"payment_method"`
	DeliveryOption string                 `json:"delivery_option" form:"delivery_option"`
	Street         string                 `json:"street" form:"street"`
	City           string                 `json:"city" form:"city"`
	PostalCode     string                 `json:"postal_code" form:"postal_code"`
	Phone          string                 `json:"phone" form:"phone"`
	Card           *checkoutsvc.CardInput `json:"card" form:"-"`

	// Multipart forms carry the card flat.
	CardNumber string `json:"-" form:"card_number"`
	CardHolder string `json:"-" form:"card_holder"`
	Expiry     string `json:"-" form:"expiry_date"`
	CVV        string `json:"-" form:"cvv"`
}

func (r checkoutRequest) input(key string) checkoutsvc.Input {
	in := checkoutsvc.Input{
		IdempotencyKey: key,
		PaymentMethod:  r.PaymentMethod,
		DeliveryOption: r.DeliveryOption,
		Street:         r.Street,
		City:           r.City,
		PostalCode:     r.PostalCode,
		Phone:          r.Phone,
		Card:           r.Card,
	}
	if in.Card == nil && r.CardNumber != "" {
		in.Card = &checkoutsvc.CardInput{Number: r.CardNumber, Holder: r.CardHolder, Expiry: r.Expiry, CVV: r.CVV}
	}
	return in
}

func (h *handlers) checkoutPreview(c *gin.Context) {
	user, _ := currentUser(c)
	preview, err := h.deps.Checkout.Preview(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":  toCart(*preview.Cart),
		"draft": preview.Draft,
	})
}

func (h *handlers) saveCheckoutDraft(c *gin.Context) {
	var draft session.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	if err := h.deps.Checkout.SaveDraft(c.Request.Context(), user.ID, draft); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// submitCheckout accepts JSON, or a multipart form when a bank transfer
// proof is attached.
func (h *handlers) submitCheckout(c *gin.Context) {
	user, _ := currentUser(c)
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	var req checkoutRequest
	var in checkoutsvc.Input
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		// Leave headroom over the file limit for the other form fields.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.ProofMaxBytes+1<<20)
		if err := c.ShouldBind(&req); err != nil {
			formError(c, err)
			return
		}
		in = req.input(key)

		fh, err := c.FormFile(proofField)
		switch {
		case err == nil:
			f, err := fh.Open()
			if err != nil {
				h.writeError(c, err)
				return
			}
			defer f.Close()
			in.Proof = &checkoutsvc.Proof{Filename: fh.Filename, Size: fh.Size, Body: f}
		case errors.Is(err, http.ErrMissingFile):
		default:
			formError(c, err)
			return
		}
	} else {
		// An empty body submits whatever the saved draft holds.
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "invalid request body")
				return
			}
		}
		in = req.input(key)
	}

	orders, err := h.deps.Checkout.Checkout(c.Request.Context(), user.ID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orders": toOrders(orders)})
}

func formError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		badRequest(c, domain.ErrProofTooLarge.Error())
		return
	}
	badRequest(c, "invalid form body")
}
