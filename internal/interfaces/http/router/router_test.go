package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func status(code int) gin.HandlerFunc {
	return func(c *gin.Context) { c.Status(code) }
}

// recordingGuards tags the response with each guard that ran
func recordingGuards() Guards {
	tag := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Writer.Header().Add("X-Guard", name)
			c.Next()
		}
	}
	return Guards{Authenticate: tag("auth"), Admin: tag("admin")}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New(), Guards{})
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.Routes())

	assert.Equal(t, "/api/v2", NewRouter(gin.New(), Guards{}, WithAPIVersion("v2")).BasePath())
}

func TestRouterSetup_GuardsByAccess(t *testing.T) {
	engine := gin.New()
	tiers := NewDomainGroup("tiers", "/tiers", Public)
	tiers.GET("", status(http.StatusOK))
	tiers.As(Session).GET("/mine", status(http.StatusOK))
	tiers.As(Admin).POST("", status(http.StatusCreated))

	require.NoError(t, NewRouter(engine, recordingGuards()).Register(tiers).Setup())

	tests := []struct {
		method string
		path   string
		want   int
		guards []string
	}{
		{http.MethodGet, "/api/v1/tiers", http.StatusOK, nil},
		{http.MethodGet, "/api/v1/tiers/mine", http.StatusOK, []string{"auth"}},
		{http.MethodPost, "/api/v1/tiers", http.StatusCreated, []string{"auth", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.guards, w.Header().Values("X-Guard"))
		})
	}
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/tiers").Code)
}

func TestRouterSetup_MissingGuard(t *testing.T) {
	engine := gin.New()
	users := NewDomainGroup("users", "/users", Session)
	users.GET("/me", status(http.StatusOK))

	err := NewRouter(engine, Guards{}).Register(users).Setup()
	require.ErrorIs(t, err, ErrMissingGuard)
	assert.Contains(t, err.Error(), "GET /api/v1/users/me")
	assert.Empty(t, engine.Routes(), "nothing is mounted")

	admin := NewDomainGroup("stats", "/stats", Admin)
	admin.GET("/revenue", status(http.StatusOK))
	err = NewRouter(gin.New(), Guards{Authenticate: status(http.StatusOK)}).Register(admin).Setup()
	assert.ErrorIs(t, err, ErrMissingGuard)
}

func TestRouterWithMiddleware(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", status(http.StatusOK))

	tag := func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	}
	g := NewDomainGroup("users", "/users", Public)
	g.GET("/me", status(http.StatusOK))
	require.NoError(t, NewRouter(engine, Guards{}, WithMiddleware(tag)).Register(g).Setup())

	assert.Equal(t, "1", serve(engine, http.MethodGet, "/api/v1/users/me").Header().Get("X-Api"))
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-Api"))
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("products", "/products", Public)
	g.GET("", status(http.StatusOK)).
		POST("", status(http.StatusCreated)).
		PUT("/:id", status(http.StatusOK)).
		PATCH("/:id", status(http.StatusAccepted)).
		DELETE("/:id", status(http.StatusNoContent))
	require.NoError(t, NewRouter(engine, Guards{}).Register(g).Setup())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/products", http.StatusOK},
		{http.MethodPost, "/api/v1/products", http.StatusCreated},
		{http.MethodPut, "/api/v1/products/1", http.StatusOK},
		{http.MethodPatch, "/api/v1/products/1", http.StatusAccepted},
		{http.MethodDelete, "/api/v1/products/1", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(engine, tt.method, tt.path).Code)
		})
	}
}

func TestRouter_Routes(t *testing.T) {
	g := NewDomainGroup("payments", "/payments", Session)
	g.GET("/current-subscription", status(http.StatusOK))
	g.As(Public).POST("/webhook", status(http.StatusOK))

	r := NewRouter(gin.New(), Guards{}).Register(g)
	assert.Equal(t, "payments", g.Name())
	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/api/v1/payments/current-subscription", Access: Session},
		{Method: http.MethodPost, Path: "/api/v1/payments/webhook", Access: Public},
	}, r.Routes())
}

func TestAccessString(t *testing.T) {
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "session", Session.String())
	assert.Equal(t, "admin", Admin.String())
	assert.Equal(t, "access(9)", Access(9).String())
}
