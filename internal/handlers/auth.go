package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/services"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and the current user
type AuthHandler struct {
	DB     *gorm.DB
	Issuer *services.TokenIssuer
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

// LoginRequest accepts the OAuth2 password form or JSON; email may replace username
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles POST /api/v1/auth/register
// @Summary Register a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Credentials"
// @Success 201 {object} UserResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.Register(c.UserContext(), h.DB, req.Email, req.Password)
	if err != nil {
		return serviceError(c, err, "User not found")
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{ID: user.ID, Email: user.Email})
}

// Login handles POST /api/v1/auth/login
// @Summary Log in and obtain a bearer token
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param username formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	username := req.Username
	if username == "" {
		username = req.Email
	}

	user, err := services.Authenticate(c.UserContext(), h.DB, username, req.Password)
	if err != nil {
		return serviceError(c, err, "User not found")
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		return serviceError(c, err, "User not found")
	}

	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me handles GET /api/v1/auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(UserResponse{ID: user.ID, Email: user.Email})
}
