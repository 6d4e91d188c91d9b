package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autotraits-be/config"
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles signup, login and JWT issuing
type AuthService struct {
	secret           []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	allowAdminSignup bool
	userRepo         *repositories.UserRepository
	breederRepo      *repositories.BreederRepository
}

// NewAuthService creates a new auth service instance
func NewAuthService(cfg config.Config) *AuthService {
	return &AuthService{
		secret:           []byte(cfg.JWTSecret),
		accessTTL:        cfg.AccessTokenTTL,
		refreshTTL:       cfg.RefreshTokenTTL,
		allowAdminSignup: cfg.AllowAdminSignup,
		userRepo:         repositories.NewUserRepository(),
		breederRepo:      repositories.NewBreederRepository(),
	}
}

// AccessTTL is the lifetime of access tokens
func (s *AuthService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

// Signup creates a new user account, attaching it to the named breeder
func (s *AuthService) Signup(req dto.SignupRequest) (models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, newError(ErrBadRequest, "Unknown role %s", role)
	}
	if role == models.RoleAdmin && !s.allowAdminSignup {
		return models.User{}, newError(ErrForbidden, "Admin signup is disabled")
	}

	breederName := ""
	if req.BreederName != nil {
		breederName = strings.TrimSpace(*req.BreederName)
	}
	if breederName == "" && role != models.RoleAdmin {
		return models.User{}, newError(ErrBadRequest, "Breeder name required for non-admins")
	}

	exists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return models.User{}, newError(ErrConflict, "Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.userRepo.DB().Transaction(func(tx *gorm.DB) error {
		user = models.User{
			Email:          req.Email,
			HashedPassword: string(hashedPassword),
			FullName:       req.FullName,
			Role:           role,
		}
		if breederName != "" {
			breeder, err := s.breederRepo.WithTx(tx).FindOrCreate(breederName)
			if err != nil {
				return fmt.Errorf("failed to resolve breeder: %w", err)
			}
			user.BreederID = &breeder.ID
		}
		created, err := s.userRepo.WithTx(tx).Create(user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, newError(ErrConflict, "Email already registered")
		}
		return models.User{}, err
	}
	return user, nil
}

// Login authenticates a user and issues an access and a refresh token
func (s *AuthService) Login(req dto.LoginRequest) (dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, newError(ErrUnauthorized, "Invalid credentials")
		}
		return dto.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, newError(ErrUnauthorized, "Invalid credentials")
	}
	return s.issue(user, true)
}

// Refresh issues a new access token from a valid refresh token
func (s *AuthService) Refresh(refreshToken string) (dto.AuthResponse, error) {
	claims, err := s.ValidateToken(refreshToken, dto.TokenTypeRefresh)
	if err != nil {
		return dto.AuthResponse{}, newError(ErrUnauthorized, "Invalid refresh token")
	}
	user, err := s.GetUser(claims.UserID)
	if err != nil {
		return dto.AuthResponse{}, newError(ErrUnauthorized, "User not found")
	}
	return s.issue(user, false)
}

// GetUser retrieves a user by ID
func (s *AuthService) GetUser(id uint) (models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return user, notFound(err, "User not found")
	}
	return user, nil
}

func (s *AuthService) issue(user models.User, withRefresh bool) (dto.AuthResponse, error) {
	access, expiresAt, err := s.GenerateToken(user, dto.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	resp := dto.AuthResponse{
		AccessToken: access,
		TokenType:   "bearer",
		User:        user,
		ExpiresAt:   expiresAt,
	}
	if withRefresh {
		if resp.RefreshToken, _, err = s.GenerateToken(user, dto.TokenTypeRefresh, s.refreshTTL); err != nil {
			return dto.AuthResponse{}, err
		}
	}
	return resp, nil
}

// GenerateToken signs a token of tokenType for user
func (s *AuthService) GenerateToken(user models.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT_SECRET not set in environment")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := dto.TokenClaims{
		UserID: user.ID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	// Refresh tokens carry identity only; tenant and role are reloaded on refresh
	if tokenType == dto.TokenTypeAccess {
		claims.BreederID = user.BreederID
		claims.Role = user.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses a token and checks it is of tokenType
func (s *AuthService) ValidateToken(tokenString, tokenType string) (*dto.TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, errors.New("JWT_SECRET not set in environment")
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*dto.TokenClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, claims.Type)
	}
	return claims, nil
}
