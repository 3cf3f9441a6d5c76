package httpserver

import (
	"net/http"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

type markPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *handlers) period(c *gin.Context) (domain.Period, error) {
	return h.deps.Fees.Period(c.Query("period"), c.Query("from"), c.Query("to"))
}

func (h *handlers) businessFees(c *gin.Context) {
	p, err := h.period(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ledger, err := h.deps.Fees.Ledger(c.Request.Context(), currentBusiness(c).ID, p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee": toFee(*ledger)})
}

func (h *handlers) listFees(c *gin.Context) {
	p, err := h.period(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ledgers, err := h.deps.Fees.LedgersForPeriod(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]feeResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toFee(l))
	}
	c.JSON(http.StatusOK, gin.H{
		"period_start": p.Start.Format(dateLayout),
		"period_end":   p.End.Format(dateLayout),
		"fees":         out,
	})
}

// markFeePaid records payment of a business's fee; :id is the business id.
func (h *handlers) markFeePaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.period(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ledger, err := h.deps.Fees.MarkPaid(c.Request.Context(), c.Param("id"), p, req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee": toFee(*ledger)})
}
