package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autotraits-be/config"
	"github.com/autotraits-be/database/dbtest"
	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*services.AuthService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dbtest.Open(t)

	auth := services.NewAuthService(config.Config{
		JWTSecret:        "middleware-secret",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  time.Hour,
		AllowAdminSignup: true,
	})

	router := gin.New()
	protected := router.Group("", AuthMiddleware(auth))
	protected.GET("/whoami", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": user.Email, "role": c.GetString(ContextRole)})
	})
	protected.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return auth, router
}

func tokenFor(t *testing.T, auth *services.AuthService, req dto.SignupRequest, tokenType string) string {
	t.Helper()
	user, err := auth.Signup(req)
	require.NoError(t, err)
	token, _, err := auth.GenerateToken(user, tokenType, time.Hour)
	require.NoError(t, err)
	return token
}

func get(router *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	auth, router := setupAuth(t)
	breeder := "Fresh Forward"
	token := tokenFor(t, auth, dto.SignupRequest{Email: "a@example.com", Password: "secret1", BreederName: &breeder}, dto.TokenTypeAccess)

	rec := get(router, "/whoami", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@example.com","role":"user"}`, rec.Body.String())

	rec = get(router, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authenticated")

	rec = get(router, "/whoami", token+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	auth, router := setupAuth(t)
	breeder := "Fresh Forward"
	token := tokenFor(t, auth, dto.SignupRequest{Email: "a@example.com", Password: "secret1", BreederName: &breeder}, dto.TokenTypeRefresh)

	rec := get(router, "/whoami", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMiddleware(t *testing.T) {
	auth, router := setupAuth(t)
	breeder := "Fresh Forward"
	userToken := tokenFor(t, auth, dto.SignupRequest{Email: "a@example.com", Password: "secret1", BreederName: &breeder}, dto.TokenTypeAccess)
	adminToken := tokenFor(t, auth, dto.SignupRequest{Email: "root@example.com", Password: "secret1", Role: models.RoleAdmin}, dto.TokenTypeAccess)

	rec := get(router, "/admin", userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin privileges required")

	rec = get(router, "/admin", adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
