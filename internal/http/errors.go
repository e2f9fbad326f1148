package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{service.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "New passwords do not match"},
	{service.ErrIncorrectPassword, http.StatusBadRequest, "Incorrect old password"},
	{service.ErrInvalidTOTP, http.StatusBadRequest, "Invalid 2FA token. Please try again."},
	{service.ErrTwoFactorNotInitialized, http.StatusBadRequest, "Generate a 2FA secret first"},
	{service.ErrTokenInvalid, http.StatusUnauthorized, "Invalid or expired token."},
	{service.ErrTwoFactorNotEnabled, http.StatusUnauthorized, "User not found or 2FA not enabled."},
	{service.ErrForbidden, http.StatusUnauthorized, "Not authorized"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "Too many attempts, please try again later"},
	{service.ErrAdvisorUnavailable, http.StatusServiceUnavailable, "AI advisor is not configured"},
	{service.ErrQRGeneration, http.StatusInternalServerError, "Error generating 2FA secret"},
}

// respondError traduce errores de servicio a {"message": ...}. Lo no mapeado
// (incluido ErrUpstream) se loguea y responde 500 con fallback.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": verr.Message})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
			}
			c.JSON(m.status, gin.H{"message": m.message})
			return
		}
	}
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
