package middleware

import (
	"net/http"
	"strings"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID    = "userId"
	ContextRole      = "role"
	ContextBreederID = "breederId"
	ContextUser      = "user"
)

// AccessTokenCookie is the cookie carrying the access token
const AccessTokenCookie = "access_token"

// AuthMiddleware authenticates requests by the access_token cookie or a Bearer header.
// The user is reloaded so role and breeder changes apply without a new login.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "Not authenticated")
			return
		}

		claims, err := auth.ValidateToken(tokenString, dto.TokenTypeAccess)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		user, err := auth.GetUser(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "User not found")
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, string(user.Role))
		c.Set(ContextBreederID, user.BreederID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": message,
	})
}
