package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

func TestBuildRouter_RequiresServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestServices().deps()
	deps.Checkout = nil
	if _, err := buildRouter(logDiscard(), nil, deps); err == nil {
		t.Fatalf("expected error for missing checkout service")
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/healthz", "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(router, http.MethodGet, "/readyz", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	expectBody(t, rec, "db not configured")
}

func TestAuthenticate_MissingToken(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/api/me/cart", "", "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/api/me", "forged", "")
	expectStatus(t, rec, http.StatusUnauthorized)
	expectBody(t, rec, "invalid token")
}

func TestMe_ReturnsUser(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/api/me", "client", "")
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, `"email":"client@example.com"`, `"role":"client"`)
}

func TestRequireRole_ClientCannotReachAdmin(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/api/admin/orders", "client", "")
	expectStatus(t, rec, http.StatusForbidden)
}

func TestRequireRole_PendingOwnerRejected(t *testing.T) {
	router := newTestServices().router(t)

	rec := doRequest(router, http.MethodGet, "/api/business/orders", "pending", "")
	expectStatus(t, rec, http.StatusForbidden)
	expectBody(t, rec, "awaiting approval")
}

func TestRequireRole_AdminMayDeleteBusiness(t *testing.T) {
	svc := newTestServices()
	svc.businesses.deleteCount = 2
	router := svc.router(t)

	rec := doRequest(router, http.MethodDelete, "/api/businesses/biz-1", "admin", "")
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, `"cancelled_orders":2`)

	rec = doRequest(router, http.MethodDelete, "/api/businesses/biz-1", "client", "")
	expectStatus(t, rec, http.StatusForbidden)
}

func TestActiveBusiness_FromHeaderAndQuery(t *testing.T) {
	svc := newTestServices()
	router := svc.router(t)

	req := httptest.NewRequest(http.MethodGet, "/api/business/orders", nil)
	req.Header.Set("Authorization", "Bearer owner")
	req.Header.Set(businessHeader, "biz-9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if svc.businesses.resolvedID != "biz-9" {
		t.Fatalf("expected header business id, got %q", svc.businesses.resolvedID)
	}
	if svc.orders.businessID != "biz-1" {
		t.Fatalf("expected orders listed for resolved business, got %q", svc.orders.businessID)
	}

	rec = doRequest(router, http.MethodGet, "/api/business/orders?business_id=biz-7", "owner", "")
	expectStatus(t, rec, http.StatusOK)
	if svc.businesses.resolvedID != "biz-7" {
		t.Fatalf("expected query business id, got %q", svc.businesses.resolvedID)
	}
}

func TestActiveBusiness_ForeignBusinessForbidden(t *testing.T) {
	svc := newTestServices()
	svc.businesses.resolveErr = domain.ErrPermissionDenied
	router := svc.router(t)

	rec := doRequest(router, http.MethodGet, "/api/business/products?business_id=other", "owner", "")
	expectStatus(t, rec, http.StatusForbidden)
}

func TestActiveBusiness_NoBusinessYet(t *testing.T) {
	svc := newTestServices()
	svc.businesses.resolveErr = domain.ErrNotFound
	router := svc.router(t)

	rec := doRequest(router, http.MethodGet, "/api/business/fees", "owner", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestCORS_Preflight(t *testing.T) {
	router := newTestServices().router(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
