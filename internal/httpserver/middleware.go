package httpserver

import (
	"net/http"
	"strings"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey     = "user"
	ctxBusinessKey = "business"

	businessHeader = "X-Business-ID"
)

// authenticate resolves the bearer token to a user or aborts with 401.
func (h *handlers) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	user, err := h.deps.Auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(ctxUserKey, *user)
	c.Next()
}

// requireRole lets the request through when the user can act as any of
// roles. Unapproved business owners are rejected.
func requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		for _, role := range roles {
			if user.CanActAs(role) {
				c.Next()
				return
			}
		}
		if user.Role == domain.RoleBusinessOwner && !user.IsApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "business owner awaiting approval"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrPermissionDenied.Error()})
	}
}

// activeBusiness picks the business an owner acts for from the business_id
// query parameter or the X-Business-ID header.
func (h *handlers) activeBusiness(c *gin.Context) {
	user, _ := currentUser(c)
	id := c.Query("business_id")
	if id == "" {
		id = c.GetHeader(businessHeader)
	}
	b, err := h.deps.Businesses.Resolve(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(ctxBusinessKey, *b)
	c.Next()
}

func currentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}

func currentBusiness(c *gin.Context) domain.Business {
	v, _ := c.Get(ctxBusinessKey)
	b, _ := v.(domain.Business)
	return b
}
