// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/app/services"
	"github.com/swipeattend/backend/internal/middleware"
	"github.com/swipeattend/backend/internal/pkg/auth"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

func newAuthResponse(result *services.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           result.Tokens.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(result.Tokens.ExpiresIn),
			RefreshToken:          result.Tokens.RefreshToken,
			RefreshTokenExpiresIn: int64(result.Tokens.RefreshExpiresIn),
		},
		Teacher: dto.NewTeacherResponse(result.Teacher),
	}
}

// Login handles teacher login
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account disabled"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.logger.Info().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(newAuthResponse(result)))
}

// GoogleLogin exchanges a Google ID token for a token pair
// @Summary Log in with Google
// @Description Only teachers already registered with the verified e-mail can sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.GoogleLoginRequest true "Google ID token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.APIResponse "Invalid token or unknown teacher"
// @Router /auth/google [post]
func (c *AuthController) GoogleLogin(ctx *gin.Context) {
	var req dto.GoogleLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	result, err := c.authService.GoogleLogin(ctx.Request.Context(), req.IDToken)
	if err != nil {
		c.logger.Info().Err(err).Msg("Google login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(newAuthResponse(result)))
}

// RefreshToken rotates a refresh token
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.APIResponse "Invalid, expired or revoked refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	result, err := c.authService.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Info().Err(err).Msg("Token refresh failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(newAuthResponse(result)))
}

// Logout revokes a refresh token of the caller
// @Summary Log out
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), teacherID, req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Logged out"}))
}

// Me returns the authenticated teacher with assigned classes
// @Summary Current teacher profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MeResponse}
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	teacher, classes, err := c.authService.Me(ctx.Request.Context(), teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.MeResponse{
		Teacher: dto.NewTeacherResponse(teacher),
		Classes: make([]dto.ClassResponse, 0, len(classes)),
	}
	for _, class := range classes {
		resp.Classes = append(resp.Classes, dto.NewClassResponse(class))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// VerifyToken confirms the bearer token belongs to an active teacher
// @Summary Verify access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.VerifyTokenResponse}
// @Failure 401 {object} dto.APIResponse "Invalid token"
// @Router /auth/verify-token [post]
func (c *AuthController) VerifyToken(ctx *gin.Context) {
	token, err := auth.ExtractBearerToken(ctx.GetHeader("Authorization"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	claims, err := c.authService.VerifyToken(ctx.Request.Context(), token)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.VerifyTokenResponse{
		Valid:     true,
		TeacherID: claims.TeacherID,
		Email:     claims.Email,
	}))
}
