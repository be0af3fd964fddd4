package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/middleware"
	"github.com/waste3d/courseforge/internal/transport/http/response"
)

const (
	PurposeBuild  = "build"
	PurposeCourse = "course"
	PurposeLearn  = "learn"
)

type ChatHandler struct {
	builder *usecase.BuildUseCase
	tutor   *usecase.TeachUseCase
}

func NewChatHandler(b *usecase.BuildUseCase, t *usecase.TeachUseCase) *ChatHandler {
	return &ChatHandler{builder: b, tutor: t}
}

type chatReq struct {
	Purpose   string `json:"purpose"`
	Message   string `json:"message"`
	SessionID string `json:"session_id" binding:"required"`
}

type approveReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	ctx := c.Request.Context()

	switch strings.ToLower(strings.TrimSpace(req.Purpose)) {
	case PurposeBuild:
		res, err := h.builder.Chat(ctx, req.SessionID, req.Message)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, res)

	case PurposeCourse:
		res, err := h.builder.Handle(ctx, req.SessionID, req.Message, ownerID(c))
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, res)

	case PurposeLearn:
		// Для урока session_id - это id урока
		lessonID, err := strconv.ParseUint(req.SessionID, 10, 64)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			response.FromError(c, fmt.Errorf("%w: message is empty", domain.ErrBadRequest))
			return
		}
		res, err := h.tutor.Handle(ctx, uint(lessonID), usecase.DecodeCommand(req.Message))
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, res)

	default:
		response.FromError(c, domain.ErrUnknownPurpose)
	}
}

// POST /api/approve
func (h *ChatHandler) Approve(c *gin.Context) {
	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	course, err := h.builder.Approve(c.Request.Context(), req.SessionID, ownerID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, course.ID)
}

func ownerID(c *gin.Context) *uint {
	id, ok := middleware.UserID(c)
	if !ok {
		return nil
	}
	return &id
}
