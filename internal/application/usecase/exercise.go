package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/prompts"
)

// ExerciseUseCase готовит одно упражнение за раз: Create кладёт его в слот,
// Commit сохраняет и очищает слот.
type ExerciseUseCase struct {
	mu     sync.Mutex
	staged *domain.Exercise

	lessons   *repository.LessonRepository
	courses   *repository.CourseRepository
	exercises *repository.ExerciseRepository
	model     llm.Client
	prompts   *prompts.Catalogue
	log       *logger.Logger
}

func NewExerciseUseCase(
	lessons *repository.LessonRepository,
	courses *repository.CourseRepository,
	exercises *repository.ExerciseRepository,
	model llm.Client,
	p *prompts.Catalogue,
	log *logger.Logger,
) *ExerciseUseCase {
	return &ExerciseUseCase{
		lessons:   lessons,
		courses:   courses,
		exercises: exercises,
		model:     model,
		prompts:   p,
		log:       log,
	}
}

// Create generates an exercise for the lesson transcript and stages it,
// replacing anything staged before.
func (uc *ExerciseUseCase) Create(ctx context.Context, lessonID uint) (*domain.Exercise, error) {
	lesson, err := uc.lessons.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(lesson.Messages))
	for _, m := range lesson.Messages {
		contents = append(contents, m.Content)
	}

	prompt, err := uc.prompts.Render(prompts.Exercise, prompts.ExerciseData{
		CourseTitle: course.Title,
		Transcript:  strings.Join(contents, "\n\n"),
	})
	if err != nil {
		return nil, err
	}
	text, err := uc.generate(ctx, llm.TaskExercise, prompt)
	if err != nil {
		return nil, err
	}

	// Название и решение не зависят друг от друга
	data := prompts.ExerciseData{CourseTitle: course.Title, Exercise: text}
	var title, solution string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.prompts.Render(prompts.ExerciseTitle, data)
		if err != nil {
			return err
		}
		title, err = uc.generate(gctx, llm.TaskExerciseTitle, p)
		return err
	})
	g.Go(func() error {
		p, err := uc.prompts.Render(prompts.ExerciseSolution, data)
		if err != nil {
			return err
		}
		solution, err = uc.generate(gctx, llm.TaskExerciseSolution, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lid := lesson.ID
	ex := &domain.Exercise{
		CourseID:  lesson.CourseID,
		SectionID: lesson.SectionID,
		LessonID:  &lid,
		Title:     strings.Trim(title, "\"' "),
		Prompt:    text,
		Solution:  solution,
		Status:    domain.StatusNotStarted,
	}

	uc.mu.Lock()
	uc.staged = ex
	uc.mu.Unlock()

	uc.log.Debug("exercise staged", "lesson_id", lid, "title", ex.Title)
	copied := *ex
	return &copied, nil
}

// Staged returns a copy of the held exercise, if any.
func (uc *ExerciseUseCase) Staged() (*domain.Exercise, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.staged == nil {
		return nil, false
	}
	copied := *uc.staged
	return &copied, true
}

// Commit persists the staged exercise. With nothing staged it is a no-op and
// returns (nil, nil). On failure the exercise stays staged.
func (uc *ExerciseUseCase) Commit(ctx context.Context) (*domain.Exercise, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.staged == nil {
		return nil, nil
	}

	ex := *uc.staged
	if err := uc.exercises.Create(ctx, &ex); err != nil {
		return nil, fmt.Errorf("commit exercise: %w", err)
	}
	uc.staged = nil

	uc.log.Info("exercise committed", "exercise_id", ex.ID, "course_id", ex.CourseID)
	return &ex, nil
}

func (uc *ExerciseUseCase) generate(ctx context.Context, task llm.Task, prompt string) (string, error) {
	resp, err := uc.model.Chat(ctx, llm.ChatRequest{
		Task:     task,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
