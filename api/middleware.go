package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/service/users"
)

const userContextKey = "currentUser"

// Auth resolves the bearer token into a user and stores it on the request
// context. Every protected route reads the user from there, never from any
// ambient state.
func Auth(service users.UserUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := cutBearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := service.CurrentUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func cutBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func currentUser(c *gin.Context) *domain.User {
	val, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := val.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
