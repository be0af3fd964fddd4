package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/middleware"
	"github.com/waste3d/courseforge/internal/transport/http/response"
)

type CourseHandler struct {
	catalog *usecase.CatalogUseCase
}

func NewCourseHandler(catalog *usecase.CatalogUseCase) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// GET /api/list-courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.Courses(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, courses)
}

// GET /api/list-sections?course_id=
func (h *CourseHandler) ListSections(c *gin.Context) {
	id, ok := queryID(c, "course_id")
	if !ok {
		return
	}
	sections, err := h.catalog.Sections(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, sections)
}

// GET /api/list-lessons?section_id=
func (h *CourseHandler) ListLessons(c *gin.Context) {
	id, ok := queryID(c, "section_id")
	if !ok {
		return
	}
	lessons, err := h.catalog.Lessons(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, lessons)
}

// GET /api/get-lesson?lesson_id=
func (h *CourseHandler) GetLesson(c *gin.Context) {
	id, ok := queryID(c, "lesson_id")
	if !ok {
		return
	}
	lesson, err := h.catalog.Lesson(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, lesson)
}

// GET /api/list-exercises?lesson_id=
func (h *CourseHandler) ListExercises(c *gin.Context) {
	id, ok := queryID(c, "lesson_id")
	if !ok {
		return
	}
	exercises, err := h.catalog.Exercises(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, exercises)
}

// GET /api/get-exercise?ex_id=
func (h *CourseHandler) GetExercise(c *gin.Context) {
	id, ok := queryID(c, "ex_id")
	if !ok {
		return
	}
	ex, err := h.catalog.Exercise(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, ex)
}

// DELETE /api/delete-course?course_id=
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := queryID(c, "course_id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	if err := h.catalog.DeleteCourse(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

// queryID разбирает положительный id из query. При ошибке ответ уже записан.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, "bad_request", fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}
