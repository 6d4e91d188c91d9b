package v1

import (
	"net/http"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/middleware"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const refreshTokenCookie = "refresh_token"

// AuthController handles signup, login and session cookies
type AuthController struct {
	authService  *services.AuthService
	cookieSecure bool
}

// NewAuthController creates a new auth controller
func NewAuthController(authService *services.AuthService, cookieSecure bool) *AuthController {
	return &AuthController{authService: authService, cookieSecure: cookieSecure}
}

// RegisterRoutes registers auth routes
func (ac *AuthController) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", ac.Signup)
		authGroup.POST("/login", ac.Login)
		authGroup.POST("/refresh", ac.Refresh)
		authGroup.POST("/logout", ac.Logout)
	}

	router.GET("/user/me", middleware.AuthMiddleware(ac.authService), ac.Me)
}

// Signup handles user registration
func (ac *AuthController) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ac.authService.Signup(req)
	if err != nil {
		respondError(c, err)
		return
	}

	zap.L().Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User registered successfully",
		"data":    user,
	})
}

// Login authenticates by JSON {email,password} or an OAuth2 username/password form
func (ac *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	authResponse, err := ac.authService.Login(req)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.setCookie(c, middleware.AccessTokenCookie, authResponse.AccessToken, ac.authService.AccessTTL())
	ac.setCookie(c, refreshTokenCookie, authResponse.RefreshToken, ac.authService.RefreshTTL())

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login successful",
		"data":    authResponse,
	})
}

// Refresh reissues the access cookie from the refresh cookie
func (ac *AuthController) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "Refresh token missing",
		})
		return
	}

	authResponse, err := ac.authService.Refresh(refreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.setCookie(c, middleware.AccessTokenCookie, authResponse.AccessToken, ac.authService.AccessTTL())
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Token refreshed",
		"data":    authResponse,
	})
}

// Logout clears both session cookies
func (ac *AuthController) Logout(c *gin.Context) {
	ac.setCookie(c, middleware.AccessTokenCookie, "", -1)
	ac.setCookie(c, refreshTokenCookie, "", -1)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged out successfully",
	})
}

// Me returns the currently authenticated user's profile
func (ac *AuthController) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "Not authenticated",
		})
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

func (ac *AuthController) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(name, value, maxAge, "/", "", ac.cookieSecure, true)
}
