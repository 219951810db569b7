package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/platform/ctxutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

const accessTokenCookie = "access_token"

var errMissingToken = errors.New("missing or invalid token")

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "path", c.FullPath(), "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == 0 {
			response.AbortWithError(c, http.StatusForbidden, "forbidden", errors.New("forbidden"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// extractToken reads a bearer token, falling back to the access_token cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
