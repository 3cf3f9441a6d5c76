package httpserver

import (
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	Action string `json:"action"`
}

type verifyPaymentRequest struct {
	Status string `json:"status"`
}

func (h *handlers) listMyOrders(c *gin.Context) {
	user, _ := currentUser(c)
	orders, err := h.deps.Orders.ListForCustomer(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrders(orders)})
}

func (h *handlers) getMyOrder(c *gin.Context) {
	user, _ := currentUser(c)
	o, err := h.deps.Orders.GetForCustomer(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrder(*o)})
}

func (h *handlers) listBusinessOrders(c *gin.Context) {
	f, err := parseOrderFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	orders, err := h.deps.Orders.ListForBusiness(c.Request.Context(), currentBusiness(c).ID, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrders(orders)})
}

func (h *handlers) getBusinessOrder(c *gin.Context) {
	o, err := h.deps.Orders.GetForBusiness(c.Request.Context(), currentBusiness(c).ID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrder(*o)})
}

func (h *handlers) transitionOrder(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	o, err := h.deps.Orders.Transition(c.Request.Context(), user, currentBusiness(c), c.Param("id"), req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrder(*o)})
}

func (h *handlers) listAllOrders(c *gin.Context) {
	f, err := parseOrderFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	orders, err := h.deps.Orders.ListAll(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrders(orders)})
}

func (h *handlers) getAnyOrder(c *gin.Context) {
	o, err := h.deps.Orders.GetForAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrder(*o)})
}

func (h *handlers) moderateOrder(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.deps.Orders.AdminTransition(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrder(*o)})
}

func (h *handlers) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.Orders.VerifyPayment(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": toPayment(*p)})
}

// parseOrderFilter reads status, date_from and date_to. Both dates are
// inclusive calendar days in UTC.
func parseOrderFilter(c *gin.Context) (domain.OrderFilter, error) {
	var f domain.OrderFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.OrderStatus(strings.ToLower(raw))
		switch status {
		case domain.OrderPending, domain.OrderConfirmed, domain.OrderInProgress,
			domain.OrderCompleted, domain.OrderCancelled, domain.OrderDelivered:
		default:
			return f, domain.Invalid("unknown status %q", raw)
		}
		f.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("date_from")); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, domain.Invalid("date_from must be YYYY-MM-DD")
		}
		f.DateFrom = &t
	}
	if raw := strings.TrimSpace(c.Query("date_to")); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, domain.Invalid("date_to must be YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		f.DateTo = &end
	}
	return f, nil
}
