package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/interfaces/http/dto"
	"github.com/tierhub/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter returns an engine with request ids. A non-empty userID
// simulates an authenticated caller without a real token.
func newTestRouter(userID string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "not found keeps message",
			err:         shared.NewDomainError("TIER_NOT_FOUND", "Tier not found"),
			wantStatus:  http.StatusNotFound,
			wantCode:    "TIER_NOT_FOUND",
			wantMessage: "Tier not found",
		},
		{
			name:        "conflict",
			err:         shared.NewDomainError("ALREADY_SUBSCRIBED", "User already has an active subscription on this tier"),
			wantStatus:  http.StatusConflict,
			wantCode:    "ALREADY_SUBSCRIBED",
			wantMessage: "User already has an active subscription on this tier",
		},
		{
			name:        "wrapped domain error",
			err:         fmt.Errorf("checkout: %w", shared.ErrQuotaExceeded),
			wantStatus:  http.StatusTooManyRequests,
			wantCode:    shared.CodeQuotaExceeded,
			wantMessage: "API call limit reached",
		},
		{
			name:        "gateway error stays actionable",
			err:         shared.NewGatewayError("Payment provider is unavailable, please retry", errors.New("dial tcp: timeout")),
			wantStatus:  http.StatusBadGateway,
			wantCode:    shared.CodeGatewayError,
			wantMessage: "Payment provider is unavailable, please retry",
		},
		{
			name:        "internal domain error is masked",
			err:         shared.WrapDomainError(shared.CodeInternalError, "failed to commit tx 42", errors.New("pq: deadlock")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    shared.CodeInternalError,
			wantMessage: internalErrorMessage,
		},
		{
			name:        "plain error is masked",
			err:         errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: internalErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestRouter("")
			r.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(r, http.MethodGet, "/", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestBaseHandler_ResponseHelpers(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter("")
	r.GET("/created", func(c *gin.Context) { h.Created(c, gin.H{"id": "1"}) })
	r.GET("/empty", func(c *gin.Context) { h.NoContent(c) })
	r.GET("/bad", func(c *gin.Context) { h.BadRequest(c, "nope") })

	assert.Equal(t, http.StatusCreated, doJSON(r, http.MethodGet, "/created", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodGet, "/empty", nil).Code)

	w := doJSON(r, http.MethodGet, "/bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
}

func TestBaseHandler_RequireUser(t *testing.T) {
	h := &BaseHandler{}
	handle := func(c *gin.Context) {
		if id, ok := h.requireUser(c); ok {
			c.String(http.StatusOK, id)
		}
	}

	anon := newTestRouter("")
	anon.GET("/", handle)
	w := doJSON(anon, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)

	authed := newTestRouter("user_2abc")
	authed.GET("/", handle)
	w = doJSON(authed, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_2abc", w.Body.String())
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter("")
	r.GET("/tiers/:id", func(c *gin.Context) {
		if id, ok := h.uuidParam(c, "id", "tier"); ok {
			c.String(http.StatusOK, id.String())
		}
	})

	w := doJSON(r, http.MethodGet, "/tiers/3f8c2a9e-5d1b-4c7a-9e2f-0b6d4a1c8e73", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3f8c2a9e-5d1b-4c7a-9e2f-0b6d4a1c8e73", w.Body.String())

	w = doJSON(r, http.MethodGet, "/tiers/pro", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid tier ID format", decodeResponse(t, w).Error.Message)
}
