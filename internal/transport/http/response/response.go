package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
)

// Envelope единый формат ответа API.
type Envelope struct {
	OK        bool   `json:"ok"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func OK(c *gin.Context, result any) {
	c.JSON(http.StatusOK, Envelope{OK: true, Result: result})
}

// Empty отвечает {"ok":true,"result":null}.
func Empty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": nil})
}

func Created(c *gin.Context, result any) {
	c.JSON(http.StatusCreated, Envelope{OK: true, Result: result})
}

func Fail(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, Envelope{Error: msg, Code: code})
}

type mapping struct {
	target    error
	status    int
	code      string
	retryable bool
}

// Порядок важен: первое совпадение по errors.Is
var mappings = []mapping{
	{domain.ErrInvalidDraft, http.StatusBadRequest, "invalid_draft", false},
	{domain.ErrNoDraft, http.StatusBadRequest, "no_draft", false},
	{domain.ErrUnknownPurpose, http.StatusBadRequest, "unknown_purpose", false},
	{domain.ErrRoutingFailed, http.StatusBadRequest, "routing_failed", true},
	{domain.ErrBadRequest, http.StatusBadRequest, "bad_request", false},
	{domain.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated", false},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", false},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", false},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", false},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found", false},
	{domain.ErrSlugConflict, http.StatusConflict, "slug_conflict", true},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition", false},
	{domain.ErrLessonExhausted, http.StatusConflict, "lesson_exhausted", false},
	{domain.ErrStaleLesson, http.StatusConflict, "stale_lesson", true},
	{domain.ErrUserAlreadyExists, http.StatusConflict, "user_exists", false},
	{llm.ErrTimeout, http.StatusServiceUnavailable, "model_timeout", true},
	{llm.ErrModelUnavailable, http.StatusServiceUnavailable, "model_unavailable", true},
	{llm.ErrRetryExhausted, http.StatusServiceUnavailable, "model_unavailable", true},
	{domain.ErrInvalidModelOutput, http.StatusInternalServerError, "invalid_model_output", true},
	{llm.ErrEmptyReply, http.StatusInternalServerError, "invalid_model_output", true},
}

// Classify возвращает HTTP статус, код и признак повторяемости для ошибки.
func Classify(err error) (int, string, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.retryable
		}
	}
	return http.StatusInternalServerError, "internal", false
}

// FromError пишет ошибку в конверт. Текст внутренних ошибок наружу не уходит.
func FromError(c *gin.Context, err error) {
	status, code, retryable := Classify(err)
	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Envelope{Error: msg, Code: code, Retryable: retryable})
}
