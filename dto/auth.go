package dto

import (
	"time"

	"github.com/autotraits-be/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims represents our custom JWT claims
type TokenClaims struct {
	UserID    uint        `json:"user_id"`
	BreederID *uint       `json:"breeder_id"`
	Role      models.Role `json:"role"`
	Type      string      `json:"type"`
	jwt.RegisteredClaims
}

// LoginRequest represents login credentials. Form posts use the OAuth2 "username" field.
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SignupRequest represents registration data
type SignupRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,min=6"`
	FullName    *string     `json:"full_name"`
	BreederName *string     `json:"breeder_name"`
	Role        models.Role `json:"role"`
}

// AuthResponse represents the response after authentication
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"-"`
	TokenType    string      `json:"token_type"`
	User         models.User `json:"user"`
	ExpiresAt    time.Time   `json:"expires_at"`
}
