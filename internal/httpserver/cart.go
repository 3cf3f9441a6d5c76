package httpserver

import (
	"net/http"

	cartsvc "marketplace/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *handlers) getCart(c *gin.Context) {
	user, _ := currentUser(c)
	cart, err := h.deps.Cart.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart)})
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	cart, err := h.deps.Cart.AddProduct(c.Request.Context(), user.ID, req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart)})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	cart, err := h.deps.Cart.UpdateItem(c.Request.Context(), user.ID, c.Param("itemId"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart)})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	user, _ := currentUser(c)
	cart, err := h.deps.Cart.RemoveItem(c.Request.Context(), user.ID, c.Param("itemId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart)})
}
