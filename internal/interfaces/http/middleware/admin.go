package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminChecker reports whether an external identity has the admin role
type AdminChecker interface {
	IsAdmin(ctx context.Context, externalID string) (bool, error)
}

// RequireAdmin must run after JWTAuth. The role is read from the users table on
// every request so a demotion takes effect immediately.
func RequireAdmin(checker AdminChecker, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		isAdmin, err := checker.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			logger.Error("Failed to load user role", zap.String("user_id", userID), zap.Error(err))
			abortWith(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			return
		}
		if !isAdmin {
			logger.Warn("Admin route denied", zap.String("user_id", userID), zap.String("path", c.FullPath()))
			abortWith(c, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": c.GetString(RequestIDKey),
		},
	})
}
