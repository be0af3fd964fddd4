package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/transport/http/response"
)

type ExerciseHandler struct {
	exercises *usecase.ExerciseUseCase
}

func NewExerciseHandler(e *usecase.ExerciseUseCase) *ExerciseHandler {
	return &ExerciseHandler{exercises: e}
}

type createExerciseReq struct {
	LessonID uint `json:"lesson_id" binding:"required"`
}

// POST /api/create-exercise
func (h *ExerciseHandler) Create(c *gin.Context) {
	var req createExerciseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	ex, err := h.exercises.Create(c.Request.Context(), req.LessonID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, ex)
}

// POST /api/commit-exercise
// Пустой слот не ошибка: result будет null.
func (h *ExerciseHandler) Commit(c *gin.Context) {
	ex, err := h.exercises.Commit(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	if ex == nil {
		response.Empty(c)
		return
	}
	response.OK(c, ex)
}
