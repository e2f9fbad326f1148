package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/service"
)

const (
	authUserKey  = "auth_user"
	authTokenKey = "auth_token"
)

// UserLookup resuelve el usuario dueño del token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// JWTAuthMiddleware exige un token de sesion (header Bearer o ?token=) y carga el usuario en el contexto.
// Los tokens pendientes de 2FA no pasan.
func JWTAuthMiddleware(logger *zap.Logger, jwtSvc *service.JWTService, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil || users == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "auth not configured"})
			return
		}

		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		claims, err := jwtSvc.Verify(token)
		if err != nil || claims.Pending {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, user not found"})
				return
			}
			logger.Error("auth user lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		c.Set(authUserKey, user)
		c.Set(authTokenKey, token)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer") {
		if fields := strings.Fields(header); len(fields) == 2 {
			return fields[1]
		}
		return ""
	}
	return strings.TrimSpace(c.Query("token"))
}

// GetCurrentUser obtiene el usuario autenticado desde el contexto.
func GetCurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

func currentToken(c *gin.Context) string {
	return c.GetString(authTokenKey)
}

// requireUser responde 401 si el handler quedo montado sin el middleware.
func requireUser(c *gin.Context) (domain.User, bool) {
	user, ok := GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
	}
	return user, ok
}
