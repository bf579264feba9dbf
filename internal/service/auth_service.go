package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"splittab/internal/auth"
	"splittab/internal/models"
)

// AuthService handles registration and login. Both return a session
// token so the client is signed in immediately.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new auth service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account.
func (s *AuthService) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.authenticator.Register(c.Request.Context(), normalizeEmail(req.Email), req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		internalError(c, "Register", err)
		return
	}

	s.respondWithToken(c, user)
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.authenticator.Authenticate(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		internalError(c, "Login", err)
		return
	}

	s.respondWithToken(c, user)
}

func (s *AuthService) respondWithToken(c *gin.Context, user *models.User) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		internalError(c, "Token generation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// normalizeEmail lowercases the address so lookups by email behave the
// same across login, member-add, and chat.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
