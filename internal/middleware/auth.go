package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/transport/http/response"
)

const (
	SessionCookie = "sid"
	userIDKey     = "userId"
)

type SessionAuth struct {
	auth *usecase.AuthUseCase
	ttl  time.Duration
	log  *logger.Logger
}

func NewSessionAuth(auth *usecase.AuthUseCase, ttl time.Duration, log *logger.Logger) *SessionAuth {
	return &SessionAuth{auth: auth, ttl: ttl, log: log.With("middleware", "SessionAuth")}
}

// Optional определяет пользователя по cookie, если она есть. Анонимный запрос проходит дальше.
func (a *SessionAuth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.resolve(c)
		c.Next()
	}
}

// Require пропускает только запросы с живой сессией.
func (a *SessionAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.resolve(c) {
			response.Fail(c, http.StatusUnauthorized, "not_authenticated", domain.ErrNotAuthenticated)
			return
		}
		c.Next()
	}
}

func (a *SessionAuth) resolve(c *gin.Context) bool {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return false
	}

	user, refreshed, err := a.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		a.log.Debug("session rejected", "error", err)
		ClearSessionCookie(c)
		return false
	}

	// Скользящая сессия: cookie переподписывается на каждый запрос
	SetSessionCookie(c, refreshed, a.ttl)
	c.Set(userIDKey, user.ID)
	return true
}

func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", false, true)
}

func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// UserID возвращает id пользователя, если запрос аутентифицирован.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
