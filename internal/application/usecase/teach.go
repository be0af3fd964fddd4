package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/waste3d/courseforge/internal/application/session"
	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/prompts"
)

const farewell = "Goodbye!"

// LessonReply is returned for every lesson command.
type LessonReply struct {
	Response string        `json:"response"`
	Status   domain.Status `json:"status"`
	HasMore  bool          `json:"has_more"`
}

// TeachUseCase ведёт урок: NotStarted -> Started -> Finished, только вперёд.
// Команды по одному уроку выполняются последовательно; запись урока - перезапись
// целиком, последняя побеждает.
type TeachUseCase struct {
	lessons *repository.LessonRepository
	locks   *session.Locker
	model   llm.Client
	prompts *prompts.Catalogue
	log     *logger.Logger
}

func NewTeachUseCase(lessons *repository.LessonRepository, model llm.Client, p *prompts.Catalogue, log *logger.Logger) *TeachUseCase {
	return &TeachUseCase{
		lessons: lessons,
		locks:   session.NewLocker(),
		model:   model,
		prompts: p,
		log:     log,
	}
}

func (uc *TeachUseCase) Handle(ctx context.Context, lessonID uint, cmd Command) (*LessonReply, error) {
	unlock := uc.locks.Lock(strconv.FormatUint(uint64(lessonID), 10))
	defer unlock()

	// Кешу здесь не верим: его мог заполнить читатель без блокировки
	lesson, err := uc.lessons.Load(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	var reply string
	switch cmd.Kind {
	case CommandStart:
		reply, err = uc.start(ctx, lesson)
	case CommandContinue:
		reply, err = uc.next(lesson)
	case CommandAsk:
		reply, err = uc.answer(ctx, lesson, cmd.Text)
	case CommandFinish:
		reply, err = uc.finish(ctx, lesson)
	case CommandLeave:
		return uc.leave(ctx, lesson)
	default:
		return nil, fmt.Errorf("unhandled lesson command %v", cmd.Kind)
	}
	if err != nil {
		return nil, err
	}

	lesson.AppendMessage(domain.RoleApplication, reply)
	if err := uc.lessons.Save(ctx, lesson); err != nil {
		return nil, err
	}

	uc.log.Debug("lesson command", "lesson_id", lesson.ID, "command", cmd.Kind.String(), "status", lesson.Status.String())
	return &LessonReply{
		Response: reply,
		Status:   lesson.Status,
		HasMore:  hasMore(lesson),
	}, nil
}

// hasMore: у законченного урока продолжения нет, даже если тело не дочитано.
func hasMore(lesson *domain.Lesson) bool {
	return lesson.Status == domain.StatusStarted && lesson.PendingBody() != ""
}

func (uc *TeachUseCase) start(ctx context.Context, lesson *domain.Lesson) (string, error) {
	if lesson.Status != domain.StatusNotStarted {
		return "", fmt.Errorf("%w: start from %s", domain.ErrInvalidTransition, lesson.Status)
	}

	lc, err := uc.lessons.Context(ctx, lesson)
	if err != nil {
		return "", err
	}

	prompt, err := uc.prompts.Render(prompts.Lesson, prompts.LessonData{
		CourseTitle:       lc.CourseTitle,
		CourseDescription: lc.CourseDescription,
		LessonTitle:       lesson.Title,
		LessonDescription: lesson.Description,
		Summaries:         lc.Summaries,
		FutureLessons:     lc.FutureLessons,
	})
	if err != nil {
		return "", err
	}

	body, err := uc.ask(ctx, llm.TaskLesson, prompt)
	if err != nil {
		return "", err
	}

	first, rest := nextBlock(body)
	if first == "" {
		return "", fmt.Errorf("%w: empty lesson body", domain.ErrInvalidModelOutput)
	}

	lesson.BodyMD = &rest
	lesson.Status = domain.StatusStarted
	uc.log.Info("lesson started", "lesson_id", lesson.ID)
	return first, nil
}

func (uc *TeachUseCase) next(lesson *domain.Lesson) (string, error) {
	if lesson.Status != domain.StatusStarted {
		return "", fmt.Errorf("%w: continue from %s", domain.ErrInvalidTransition, lesson.Status)
	}
	if lesson.PendingBody() == "" {
		return "", domain.ErrLessonExhausted
	}

	block, rest := nextBlock(lesson.PendingBody())
	lesson.BodyMD = &rest
	return block, nil
}

func (uc *TeachUseCase) answer(ctx context.Context, lesson *domain.Lesson, question string) (string, error) {
	if lesson.Status != domain.StatusStarted {
		return "", fmt.Errorf("%w: question from %s", domain.ErrInvalidTransition, lesson.Status)
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", domain.ErrBadRequest)
	}

	prompt, err := uc.prompts.Render(prompts.Answer, prompts.AnswerData{
		Context:  transcript(lesson),
		Question: question,
	})
	if err != nil {
		return "", err
	}

	answer, err := uc.ask(ctx, llm.TaskAnswer, prompt)
	if err != nil {
		return "", err
	}

	lesson.AppendMessage(domain.RoleUser, question)
	return answer, nil
}

func (uc *TeachUseCase) finish(ctx context.Context, lesson *domain.Lesson) (string, error) {
	if lesson.Status != domain.StatusStarted {
		return "", fmt.Errorf("%w: finish from %s", domain.ErrInvalidTransition, lesson.Status)
	}

	prompt, err := uc.prompts.Render(prompts.Summary, prompts.SummaryData{Transcript: transcript(lesson)})
	if err != nil {
		return "", err
	}

	summary, err := uc.ask(ctx, llm.TaskSummary, prompt)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", fmt.Errorf("%w: empty lesson summary", domain.ErrInvalidModelOutput)
	}

	lesson.Summary = &summary
	lesson.Status = domain.StatusFinished
	uc.log.Info("lesson finished", "lesson_id", lesson.ID)
	return summary, nil
}

// leave сохраняет начатый урок как есть. Ответ в транскрипт не пишется.
func (uc *TeachUseCase) leave(ctx context.Context, lesson *domain.Lesson) (*LessonReply, error) {
	if lesson.Status == domain.StatusStarted {
		if err := uc.lessons.Save(ctx, lesson); err != nil {
			return nil, err
		}
	}
	return &LessonReply{
		Response: farewell,
		Status:   lesson.Status,
		HasMore:  hasMore(lesson),
	}, nil
}

func (uc *TeachUseCase) ask(ctx context.Context, task llm.Task, prompt string) (string, error) {
	resp, err := uc.model.Chat(ctx, llm.ChatRequest{
		Task:     task,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func transcript(lesson *domain.Lesson) string {
	parts := make([]string, 0, len(lesson.Messages))
	for _, m := range lesson.Messages {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(parts, "\n\n")
}
