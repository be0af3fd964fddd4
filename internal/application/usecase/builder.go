package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/waste3d/courseforge/internal/application/coerce"
	"github.com/waste3d/courseforge/internal/application/draft"
	"github.com/waste3d/courseforge/internal/application/session"
	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/prompts"
)

const approveAttempts = 3

// BuildUseCase ведёт диалог о структуре курса и сохраняет одобренный черновик.
// Все операции над одной сессией выполняются строго по очереди.
type BuildUseCase struct {
	sessions session.Store
	locks    *session.Locker
	courses  *repository.CourseRepository
	model    llm.Client
	prompts  *prompts.Catalogue
	router   *IntentRouter
	log      *logger.Logger
}

func NewBuildUseCase(
	sessions session.Store,
	courses *repository.CourseRepository,
	model llm.Client,
	p *prompts.Catalogue,
	router *IntentRouter,
	log *logger.Logger,
) *BuildUseCase {
	return &BuildUseCase{
		sessions: sessions,
		locks:    session.NewLocker(),
		courses:  courses,
		model:    model,
		prompts:  p,
		router:   router,
		log:      log,
	}
}

// ChatResult is the reply of one build turn.
type ChatResult struct {
	Response string         `json:"response"`
	Draft    map[string]any `json:"draft"`
}

// RoutedResult is what Handle returns: either a build turn or the new course.
type RoutedResult struct {
	Intent Intent         `json:"intent"`
	Chat   *ChatResult    `json:"chat,omitempty"`
	Course *domain.Course `json:"course,omitempty"`
}

// Build sends message with the session history to the model and returns the raw reply.
// Both turns are recorded only if the model call succeeds.
func (uc *BuildUseCase) Build(ctx context.Context, sessionID, message string) (string, error) {
	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	return uc.build(ctx, sessionID, message)
}

func (uc *BuildUseCase) build(ctx context.Context, sessionID, message string) (string, error) {
	history, err := uc.sessions.History(ctx, sessionID)
	if err != nil {
		return "", err
	}

	system, err := uc.prompts.Render(prompts.BuildSystem, nil)
	if err != nil {
		return "", err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := uc.model.Chat(ctx, llm.ChatRequest{
		Task:     llm.TaskBuild,
		System:   system,
		Messages: messages,
		JSON:     true,
	})
	if err != nil {
		return "", err
	}

	if err := uc.sessions.AppendHistory(ctx, sessionID,
		domain.ChatTurn{Role: domain.TurnUser, Content: message},
		domain.ChatTurn{Role: domain.TurnAssistant, Content: resp.Text},
	); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Chat runs one build turn, coerces the reply and stages its draft for the session.
func (uc *BuildUseCase) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	return uc.chat(ctx, sessionID, message)
}

func (uc *BuildUseCase) chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	raw, err := uc.build(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}

	reply, err := coerce.Object(raw)
	if err != nil {
		return nil, err
	}

	// Модель иногда кладёт черновик строкой с JSON внутри
	draftObj, err := coerce.Object(reply["draft"])
	if err != nil {
		return nil, fmt.Errorf("%w: reply has no draft object", domain.ErrInvalidModelOutput)
	}

	if err := uc.sessions.SetDraft(ctx, sessionID, draftObj); err != nil {
		return nil, err
	}

	response, _ := reply["response"].(string)
	uc.log.Debug("draft staged", "session_id", sessionID, "title", draftObj["title"])
	return &ChatResult{Response: response, Draft: draftObj}, nil
}

// Approve validates the staged draft and commits it in one transaction.
// The draft is cleared only after a successful commit.
func (uc *BuildUseCase) Approve(ctx context.Context, sessionID string, ownerID *uint) (*domain.Course, error) {
	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	return uc.approve(ctx, sessionID, ownerID)
}

func (uc *BuildUseCase) approve(ctx context.Context, sessionID string, ownerID *uint) (*domain.Course, error) {
	raw, ok, err := uc.sessions.Draft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoDraft
	}

	normalized, err := draft.Validate(raw)
	if err != nil {
		return nil, err
	}

	base := draft.Slugify(normalized.Title)
	slugs := func(n int) string { return draft.SlugCandidate(base, n) }

	var course *domain.Course
	for attempt := 1; attempt <= approveAttempts; attempt++ {
		course, err = uc.courses.CreateFromDraft(ctx, normalized, slugs, ownerID)
		if !errors.Is(err, domain.ErrSlugConflict) {
			break
		}
		uc.log.Warn("slug conflict, probing again", "slug", base, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.sessions.ClearDraft(ctx, sessionID); err != nil {
		// Курс уже записан; повторное одобрение создаст копию с новым slug
		uc.log.Error("clear draft after approve", "session_id", sessionID, "error", err)
	}

	uc.log.Info("course approved", "course_id", course.ID, "slug", course.Slug, "session_id", sessionID)
	return course, nil
}

// Handle classifies message and dispatches it to a build turn or to approval.
func (uc *BuildUseCase) Handle(ctx context.Context, sessionID, message string, ownerID *uint) (*RoutedResult, error) {
	intent, err := uc.router.Route(ctx, message)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	switch intent {
	case IntentApprove:
		course, err := uc.approve(ctx, sessionID, ownerID)
		if err != nil {
			return nil, err
		}
		return &RoutedResult{Intent: intent, Course: course}, nil
	default:
		chat, err := uc.chat(ctx, sessionID, message)
		if err != nil {
			return nil, err
		}
		return &RoutedResult{Intent: intent, Chat: chat}, nil
	}
}
