package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/interfaces/http/handler"
)

// newGuardedEngine mounts every group with guards that reject unauthenticated
// requests with 401 and, unless adminAllowed, admin routes with 403.
func newGuardedEngine(t *testing.T, adminAllowed bool) *gin.Engine {
	t.Helper()
	engine := gin.New()
	guards := Guards{
		Authenticate: func(c *gin.Context) {
			if c.GetHeader("Authorization") == "" {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Next()
		},
		Admin: func(c *gin.Context) {
			if !adminAllowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
		},
	}
	h := Handlers{
		Auth:         handler.NewAuthHandler(nil),
		User:         handler.NewUserHandler(nil),
		Subscription: handler.NewSubscriptionHandler(nil, nil),
		Webhook:      handler.NewStripeWebhookHandler(nil, 0),
		Tier:         handler.NewTierHandler(nil),
		Product:      handler.NewProductHandler(nil, nil),
		Admin:        handler.NewAdminHandler(nil, nil),
	}
	require.NoError(t, NewRouter(engine, guards).Register(APIGroups(h)...).Setup())
	return engine
}

func TestAPIGroups_RequireSession(t *testing.T) {
	engine := newGuardedEngine(t, true)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPatch, "/api/v1/users/language"},
		{http.MethodPost, "/api/v1/users/me/api-calls"},
		{http.MethodPost, "/api/v1/payments/create-checkout-session/7c0e"},
		{http.MethodPost, "/api/v1/payments/register-free-tier"},
		{http.MethodGet, "/api/v1/payments/current-subscription"},
		{http.MethodDelete, "/api/v1/payments/current-subscription"},
		{http.MethodPost, "/api/v1/tiers"},
		{http.MethodPut, "/api/v1/tiers/1"},
		{http.MethodDelete, "/api/v1/tiers/1"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodDelete, "/api/v1/products/1"},
		{http.MethodPost, "/api/v1/products/1/access-token"},
		{http.MethodGet, "/api/v1/stats/revenue"},
		{http.MethodGet, "/api/v1/stats/users/week"},
		{http.MethodGet, "/api/v1/stripe/prices"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAPIGroups_RequireAdmin(t *testing.T) {
	engine := newGuardedEngine(t, false)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/tiers"},
		{http.MethodPut, "/api/v1/products/1"},
		{http.MethodGet, "/api/v1/stats/revenue/month"},
		{http.MethodGet, "/api/v1/stripe/price/price_pro"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("Authorization", "Bearer t")
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestAPIGroups_PublicRoutes(t *testing.T) {
	engine := newGuardedEngine(t, false)

	// Each request fails validation inside the handler, proving no guard ran.
	routes := []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/payments/webhook", `{}`},
		{http.MethodPost, "/api/v1/auth/sync", `{}`},
		{http.MethodPost, "/api/v1/products/access-token/verify", `{}`},
	}
	for _, rt := range routes {
		t.Run(rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
			req.Header.Set("Content-Type", "application/json")
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAPIGroups_AccessTable(t *testing.T) {
	r := NewRouter(gin.New(), Guards{}).Register(APIGroups(Handlers{})...)

	access := make(map[string]Access)
	for _, rt := range r.Routes() {
		access[rt.Method+" "+rt.Path] = rt.Access
	}
	assert.Equal(t, Public, access["POST /api/v1/payments/webhook"])
	assert.Equal(t, Session, access["POST /api/v1/payments/register-free-tier"])
	assert.Equal(t, Public, access["GET /api/v1/tiers"])
	assert.Equal(t, Admin, access["DELETE /api/v1/tiers/:id"])
	assert.Equal(t, Session, access["POST /api/v1/products/:id/access-token"])
	assert.Equal(t, Admin, access["GET /api/v1/stripe/price/:priceId"])
	assert.Len(t, access, 26)
}
