package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUser     = "auth_user"
	ContextKeyRole     = "auth_role"
	ContextKeyToken    = "auth_token"
	ContextKeyDisabled = "auth_disabled"
)

const (
	msgAuthRequired = "authentication required"
	msgForbidden    = "insufficient permissions"
	msgInactiveUser = "inactive user"
)

// Middleware resolves the caller from an Authorization: Bearer header.
type Middleware struct {
	service *Service
	log     *logging.Logger
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, log *logging.Logger) *Middleware {
	return &Middleware{service: service, log: log}
}

// Handler authenticates requests that carry a bearer token. It never aborts;
// RequireAuth and RequireRole decide what anonymous callers may reach.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := m.service.ValidateToken(c.Request.Context(), token)
		switch {
		case err == nil:
			setUserContext(c, user, token)
		case errors.Is(err, ErrUserDisabled):
			c.Set(ContextKeyDisabled, true)
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
			m.log.Debug("rejected bearer token", "path", c.FullPath(), "error", err)
		default:
			m.log.Error("failed to validate bearer token", "error", err)
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setUserContext(c *gin.Context, user *entities.User, token string) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyRole, user.UserRole)
	c.Set(ContextKeyToken, token)
}

// RequireAuth rejects anonymous callers with 401 and disabled users with 403.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticated(c) {
			return
		}
		c.Next()
	}
}

// RequireRole returns a middleware that requires one of roles. It implies
// RequireAuth.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !authenticated(c) {
			return
		}
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}
		c.Next()
	}
}

// authenticated aborts the request unless an enabled user is attached.
func authenticated(c *gin.Context) bool {
	if c.GetBool(ContextKeyDisabled) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInactiveUser})
		return false
	}
	if GetUserID(c) == 0 {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return false
	}
	return true
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's ID, 0 when anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// IsAdmin reports whether the caller has the ADMIN role.
func IsAdmin(c *gin.Context) bool {
	return GetUserRole(c) == entities.RoleAdmin
}

// Actor is the audit actor for writes made by the caller.
func Actor(c *gin.Context) *uint {
	return entities.Actor(GetUserID(c))
}
