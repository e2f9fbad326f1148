package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios y 2FA.
type UserHandler struct {
	logger    *zap.Logger
	userServ  *service.UserService
	twoFactor *service.TwoFactorService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, twoFactor *service.TwoFactorService) *UserHandler {
	return &UserHandler{
		logger:    logger,
		userServ:  userServ,
		twoFactor: twoFactor,
	}
}

// Register maneja POST /api/users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		badRequest(c, "Please add all fields")
		return
	}

	user, token, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err, "Invalid user data")
		return
	}
	c.JSON(http.StatusCreated, user.Profile(token))
}

// Login maneja POST /api/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid credentials")
		return
	}

	res, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "Could not log in")
		return
	}
	if res.Requires2FA {
		c.JSON(http.StatusOK, gin.H{
			"message":     "Please verify 2FA",
			"requires2FA": true,
			"tempToken":   res.TempToken,
		})
		return
	}
	c.JSON(http.StatusOK, res.User.Profile(res.Token))
}

// VerifyLogin maneja POST /api/users/login/verify-2fa.
func (h *UserHandler) VerifyLogin(c *gin.Context) {
	var req struct {
		TempToken string `json:"tempToken"`
		Token     string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TempToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token."})
		return
	}

	user, token, err := h.twoFactor.VerifyLogin(c.Request.Context(), req.TempToken, req.Token)
	if err != nil {
		respondError(c, h.logger, err, "Error verifying 2FA")
		return
	}
	c.JSON(http.StatusOK, user.Profile(token))
}

// UpdateProfile maneja PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name        *string                         `json:"name"`
		Preferences *domain.NotificationPreferences `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	user, err := h.userServ.UpdateProfile(c.Request.Context(), current.ID, service.ProfileUpdate{
		Name:        req.Name,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not update profile")
		return
	}
	c.JSON(http.StatusOK, user.Profile(currentToken(c)))
}

// ChangePassword maneja PUT /api/users/profile/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please add all fields")
		return
	}

	err := h.userServ.ChangePassword(c.Request.Context(), current.ID, service.ChangePasswordInput{
		OldPassword:        req.OldPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Generate2FA maneja POST /api/users/2fa/generate.
func (h *UserHandler) Generate2FA(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}
	uri, err := h.twoFactor.Generate(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, h.logger, err, "Error generating 2FA secret")
		return
	}
	c.JSON(http.StatusOK, gin.H{"qrCodeUrl": uri})
}

// Verify2FA maneja POST /api/users/2fa/verify.
func (h *UserHandler) Verify2FA(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid 2FA token. Please try again.")
		return
	}

	user, err := h.twoFactor.Verify(c.Request.Context(), current.ID, req.Token)
	if err != nil {
		respondError(c, h.logger, err, "Error verifying 2FA")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "2FA enabled successfully!",
		"user":    user.Profile(""),
	})
}

// Disable2FA maneja POST /api/users/2fa/disable.
func (h *UserHandler) Disable2FA(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}
	user, err := h.twoFactor.Disable(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, h.logger, err, "Error disabling 2FA")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "2FA disabled successfully.",
		"user":    user.Profile(""),
	})
}
