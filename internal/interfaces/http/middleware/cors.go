package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists the browser origins allowed to call the API. An empty
// AllowOrigins disables CORS headers entirely; "*" admits any origin without
// credentials.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig admits no origins until http.cors_allow_origins is set
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept", "Origin", "Cache-Control", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

type corsPolicy struct {
	origins  map[string]struct{}
	wildcard bool
	creds    bool
	static   map[string]string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(cfg.AllowOrigins)), creds: cfg.AllowCredentials}
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			p.wildcard = true
			continue
		}
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}

	p.static = map[string]string{
		"Access-Control-Allow-Methods": strings.Join(cfg.AllowMethods, ", "),
		"Access-Control-Allow-Headers": strings.Join(cfg.AllowHeaders, ", "),
	}
	if len(cfg.ExposeHeaders) > 0 {
		p.static["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposeHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		p.static["Access-Control-Max-Age"] = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or ""
func (p corsPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	if p.wildcard {
		return "*"
	}
	return ""
}

func (p corsPolicy) write(h http.Header, allowed string) {
	h.Set("Access-Control-Allow-Origin", allowed)
	if p.creds && allowed != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	for k, v := range p.static {
		h.Set(k, v)
	}
}

// CORSWithConfig answers preflights with 204 and decorates allowed
// cross-origin responses. Disallowed origins are served without CORS headers
// so the browser blocks them.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	enabled := policy.wildcard || len(policy.origins) > 0

	return func(c *gin.Context) {
		if enabled {
			h := c.Writer.Header()
			h.Add("Vary", "Origin")
			if allowed := policy.allow(c.GetHeader("Origin")); allowed != "" {
				policy.write(h, allowed)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
