package demo

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const blockedMessage = "This action is disabled in demo mode"

// Middleware blocks write operations in demo mode.
// Read-only operations (GET) are always allowed, and so are login and
// logout. Signup is a write and stays blocked.
type Middleware struct {
	enabled      bool
	allowedPaths []string
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{
		enabled: enabled,
		allowedPaths: []string{
			"/api/auth/login",
			"/api/auth/token",
			"/api/auth/logout",
		},
	}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that answers 403 to every write.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     blockedMessage,
			"demo_mode": true,
		})
	}
}

func (m *Middleware) isAllowedPath(path string) bool {
	for _, allowed := range m.allowedPaths {
		if path == allowed {
			return true
		}
	}
	return false
}
