package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user_id": user.ID, "email": user.Email})
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err, "invalid_credentials")
		return
	}
	response.RespondOK(c, session)
}

// POST /api/refresh
// body (optional): { "refresh_token": "..." }
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	session, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondAuthError(c, err, "refresh_failed")
		return
	}
	response.RespondOK(c, session)
}

// POST /api/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		respondAuthError(c, err, "logout_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/me
func (ah *AuthHandler) Me(c *gin.Context) {
	me, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		respondAuthError(c, err, "unauthorized")
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// respondAuthError turns credential failures into 401 and defers the rest to
// the aggregate mapping.
func respondAuthError(c *gin.Context, err error, code string) {
	if domainagg.IsCode(err, domainagg.CodeForbidden) {
		response.RespondError(c, http.StatusUnauthorized, code, errors.New(domainagg.MessageOf(err)))
		return
	}
	response.RespondAggregateError(c, err)
}
