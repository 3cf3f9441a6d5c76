package httpserver

import (
	"errors"
	"net/http"

	"marketplace/internal/domain"
	authsvc "marketplace/internal/service/auth"
	cartsvc "marketplace/internal/service/cart"

	"github.com/gin-gonic/gin"
)

var badRequestErrors = []error{
	domain.ErrEmptyCart,
	domain.ErrMissingPaymentMethod,
	domain.ErrInvalidDeliveryOption,
	domain.ErrMissingDeliveryDetails,
	domain.ErrInvalidCardDetails,
	domain.ErrInvalidProofOfPayment,
	domain.ErrProofTooLarge,
	cartsvc.ErrProductUnavailable,
}

var conflictErrors = []error{
	domain.ErrInvalidTransition,
	domain.ErrCheckoutInProgress,
	domain.ErrDuplicateCheckout,
	domain.ErrAlreadyExists,
}

// statusFor maps service errors to a status code and a client-safe message.
func statusFor(err error) (int, string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, target.Error()
		}
	}
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, authsvc.ErrInvalidCredentials.Error()
	case errors.Is(err, authsvc.ErrInvalidToken):
		return http.StatusUnauthorized, authsvc.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired, domain.ErrPaymentDeclined.Error()
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, domain.ErrPermissionDenied.Error()
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, domain.ErrOrderNotFound.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFound.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
