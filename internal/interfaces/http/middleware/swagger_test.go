package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg SwaggerConfig, remoteAddr string) int {
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    SwaggerConfig
		remote string
		want   int
	}{
		{"disabled", SwaggerConfig{}, "127.0.0.1:1", http.StatusNotFound},
		{"enabled without list", SwaggerConfig{Enabled: true}, "203.0.113.9:1", http.StatusOK},
		{"single ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, "127.0.0.1:1", http.StatusOK},
		{"single ip denied", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "192.168.1.1:1", http.StatusForbidden},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.20.30.40:1", http.StatusOK},
		{"ipv6 allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"2001:db8::/32"}}, "[2001:db8::7]:1", http.StatusOK},
		{"garbage entries deny", SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}}, "10.0.0.1:1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveSwagger(tt.cfg, tt.remote))
		})
	}
}

func TestIPAllowed(t *testing.T) {
	prefixes := parseAllowList([]string{"192.168.0.0/16", " 2001:db8::1 ", "bogus", "10.1.2.3"})
	assert.Len(t, prefixes, 3)

	assert.True(t, ipAllowed("192.168.4.2", prefixes))
	assert.True(t, ipAllowed("::ffff:10.1.2.3", prefixes), "mapped IPv4 matches its plain form")
	assert.True(t, ipAllowed("2001:db8::1", prefixes))
	assert.False(t, ipAllowed("8.8.8.8", prefixes))
	assert.False(t, ipAllowed("", prefixes))
	assert.False(t, ipAllowed("10.0.0.1", []netip.Prefix{}))
}
