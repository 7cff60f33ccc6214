package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	tests := []struct {
		name     string
		clientID string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"client id kept", "checkout-7f3a", true},
		{"oversized replaced", strings.Repeat("x", MaxRequestIDLength+1), false},
		{"whitespace replaced", "a b", false},
		{"control characters replaced", "abc\x01", false},
		{"non ascii replaced", "réq", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.clientID != "" {
				req.Header.Set(RequestIDHeader, tt.clientID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			id := w.Header().Get(RequestIDHeader)
			assert.Equal(t, id, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.clientID, id)
			} else {
				assert.Len(t, id, 32)
			}
		})
	}
}
