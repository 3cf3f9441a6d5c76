package httpserver

import (
	"net/http"

	catalogsvc "marketplace/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.ListProducts(c.Request.Context(), c.Query("category_id"), c.Query("business_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProducts(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProduct(*p)})
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryResponse(cat))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *handlers) listBusinessProducts(c *gin.Context) {
	b := currentBusiness(c)
	products, err := h.deps.Catalog.ListBusinessProducts(c.Request.Context(), b.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": toBusiness(b), "products": toProducts(products)})
}

func (h *handlers) createProduct(c *gin.Context) {
	var req catalogsvc.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.Catalog.CreateProduct(c.Request.Context(), currentBusiness(c).ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": toProduct(*p)})
}

func (h *handlers) updateProduct(c *gin.Context) {
	var req catalogsvc.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.Catalog.UpdateProduct(c.Request.Context(), currentBusiness(c).ID, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProduct(*p)})
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.Catalog.DeleteProduct(c.Request.Context(), currentBusiness(c).ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
