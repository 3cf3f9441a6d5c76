package httpserver

import (
	"net/http"

	reviewsvc "marketplace/internal/service/review"

	"github.com/gin-gonic/gin"
)

type reactionRequest struct {
	Action string `json:"action"`
}

func (h *handlers) productReviews(c *gin.Context) {
	listing, err := h.deps.Reviews.ForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewListing(*listing))
}

func (h *handlers) businessReviews(c *gin.Context) {
	listing, err := h.deps.Reviews.ForBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewListing(*listing))
}

func (h *handlers) myBusinessReviews(c *gin.Context) {
	b := currentBusiness(c)
	listing, err := h.deps.Reviews.ForBusiness(c.Request.Context(), b.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewListing(*listing))
}

func (h *handlers) rateProduct(c *gin.Context) {
	var req reviewsvc.RateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	r, err := h.deps.Reviews.RateProduct(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": toReview(*r)})
}

func (h *handlers) rateBusiness(c *gin.Context) {
	var req reviewsvc.RateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	r, err := h.deps.Reviews.RateBusiness(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": toReview(*r)})
}

func (h *handlers) reactToReview(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, _ := currentUser(c)
	out, err := h.deps.Reviews.React(c.Request.Context(), user, c.Param("id"), req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":  out.Outcome,
		"likes":    out.Likes,
		"dislikes": out.Dislikes,
	})
}

func (h *handlers) listAllReviews(c *gin.Context) {
	reviews, err := h.deps.Reviews.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": toReviews(reviews)})
}

func (h *handlers) deleteReview(c *gin.Context) {
	if err := h.deps.Reviews.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toReviewListing(l reviewsvc.Listing) gin.H {
	return gin.H{
		"review_count":   l.Summary.Count,
		"average_rating": l.Summary.Average.StringFixed(2),
		"reviews":        toReviews(l.Reviews),
	}
}
