package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/logger"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyToken    = "auth_token"
)

// Middleware rejects requests without a valid bearer token.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler returns the gin handler. Failures answer 401 {"error": ...}.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := m.service.ValidateToken(c.Request.Context(), token)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, ErrTokenExpired):
				msg = "token expired"
			case errors.Is(err, ErrTokenRevoked):
				msg = "token revoked"
			case !errors.Is(err, ErrInvalidToken):
				logger.For(c.Request.Context()).WithError(err).Error("token validation failed")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID retrieves the authenticated user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetToken returns the raw bearer token of the request.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
