package httpserver

import (
	"net/http"

	businesssvc "marketplace/internal/service/business"

	"github.com/gin-gonic/gin"
)

func (h *handlers) registerBusiness(c *gin.Context) {
	var req businesssvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	b, err := h.deps.Businesses.Register(c.Request.Context(), user, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"business": toBusiness(*b)})
}

func (h *handlers) listMyBusinesses(c *gin.Context) {
	user, _ := currentUser(c)
	list, err := h.deps.Businesses.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": toBusinesses(list)})
}

func (h *handlers) deleteBusiness(c *gin.Context) {
	user, _ := currentUser(c)
	cancelled, err := h.deps.Businesses.Delete(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "cancelled_orders": cancelled})
}

func (h *handlers) listAllBusinesses(c *gin.Context) {
	list, err := h.deps.Businesses.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": toBusinesses(list)})
}

func (h *handlers) listPendingOwners(c *gin.Context) {
	users, err := h.deps.Businesses.ListPendingOwners(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owners": toUsers(users)})
}

func (h *handlers) approveOwner(c *gin.Context) {
	u, err := h.deps.Businesses.ApproveOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUser(*u)})
}
