package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Herculano1234/MuseuCom/internal/auth"
	"github.com/Herculano1234/MuseuCom/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by /auth/refresh
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is the token pair followed by the user's fields at the top level
type LoginResponse struct {
	TokenResponse
	UserDetail
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Email     string    `json:"email"`
	Phone     string    `json:"telefone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupRequest represents a request to create an account
type SignupRequest struct {
	Name     string `json:"nome" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required,min=6"`
	Phone    string `json:"telefone" validate:"omitempty,phone"`
}

func newUserDetail(user *models.User) UserDetail {
	return UserDetail{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// issueTokens creates an access token and a stored refresh token for user
func (s *Server) issueTokens(tx *gorm.DB, user *models.User) (*TokenResponse, error) {
	accessToken, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, hash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.config.Auth.RefreshTokenTTL),
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refreshToken}, nil
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	tokens, err := s.issueTokens(s.db, &user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: *tokens,
		UserDetail:    newUserDetail(&user),
	})
}

var errRefreshRejected = errors.New("refresh token rejected")

// @Summary Exchange a refresh token
// @Description Revokes the presented refresh token and returns a new pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (s *Server) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	var tokens *TokenResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		err := tx.Preload("User").
			Where("token_hash = ?", auth.HashRefreshToken(req.RefreshToken)).
			First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errRefreshRejected
		}
		if err != nil {
			return err
		}

		now := s.now()
		if !stored.Active(now) {
			return errRefreshRejected
		}

		// Conditional update so a token cannot be redeemed twice
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Update("revoked_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errRefreshRejected
		}

		tokens, err = s.issueTokens(tx, &stored.User)
		return err
	})

	if errors.Is(err, errRefreshRejected) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// @Summary Logout
// @Description Revokes a refresh token. Always succeeds.
// @Tags auth
// @Accept json
// @Param request body RefreshRequest true "Logout request"
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		err := s.db.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", auth.HashRefreshToken(req.RefreshToken)).
			Update("revoked_at", s.now()).Error
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to revoke refresh token")
		}
	}

	c.Status(http.StatusNoContent)
}

// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, newUserDetail(&user))
}

// @Summary Create an account
// @Tags users
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup request"
// @Success 201 {object} UserDetail
// @Failure 409 {object} map[string]interface{}
// @Router /usuarios [post]
func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.Struct(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User created")

	c.JSON(http.StatusCreated, newUserDetail(user))
}

// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} UserDetail
// @Failure 403 {object} map[string]interface{}
// @Router /usuarios [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]UserDetail, len(users))
	for i := range users {
		details[i] = newUserDetail(&users[i])
	}

	c.JSON(http.StatusOK, details)
}
