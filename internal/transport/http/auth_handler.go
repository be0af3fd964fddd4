package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/middleware"
	"github.com/waste3d/courseforge/internal/transport/http/response"
)

type AuthHandler struct {
	auth *usecase.AuthUseCase
	ttl  time.Duration
}

func NewAuthHandler(auth *usecase.AuthUseCase, ttl time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, ttl: ttl}
}

type credentialsReq struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, user)
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	middleware.SetSessionCookie(c, token, h.ttl)
	response.OK(c, user)
}

// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			response.FromError(c, err)
			return
		}
	}
	middleware.ClearSessionCookie(c)
	response.OK(c, gin.H{"message": "logged out"})
}

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.FromError(c, domain.ErrNotAuthenticated)
		return
	}
	user, err := h.auth.User(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, user)
}
