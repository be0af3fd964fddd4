package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/waste3d/courseforge/internal/application/session"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/prompts"
	"github.com/waste3d/courseforge/internal/testutil"
)

// fakeModel replays scripted replies per task. The last reply of a task repeats.
type fakeModel struct {
	mu      sync.Mutex
	replies map[llm.Task][]string
	errs    map[llm.Task]error
	calls   []llm.ChatRequest
}

func newFakeModel() *fakeModel {
	return &fakeModel{replies: map[llm.Task][]string{}, errs: map[llm.Task]error{}}
}

func (f *fakeModel) on(task llm.Task, replies ...string) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[task] = append(f.replies[task], replies...)
	return f
}

func (f *fakeModel) fail(task llm.Task, err error) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[task] = err
	return f
}

func (f *fakeModel) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if err := f.errs[req.Task]; err != nil {
		return nil, err
	}
	queue := f.replies[req.Task]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no scripted reply for task %s", req.Task)
	}
	text := queue[0]
	if len(queue) > 1 {
		f.replies[req.Task] = queue[1:]
	}
	return &llm.ChatResponse{Text: text, Model: "fake"}, nil
}

func (f *fakeModel) Available(context.Context) bool { return true }

func (f *fakeModel) lastPrompt(task llm.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Task == task {
			var b strings.Builder
			for _, m := range f.calls[i].Messages {
				b.WriteString(m.Content)
			}
			return b.String()
		}
	}
	return ""
}

type fixture struct {
	db        *gorm.DB
	model     *fakeModel
	sessions  *session.MemoryStore
	courses   *repository.CourseRepository
	lessons   *repository.LessonRepository
	exercises *repository.ExerciseRepository
	prompts   *prompts.Catalogue
	log       *logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	p, err := prompts.Load()
	require.NoError(t, err)
	return &fixture{
		db:        db,
		model:     newFakeModel(),
		sessions:  session.NewMemoryStore(),
		courses:   repository.NewCourseRepository(db, nil),
		lessons:   repository.NewLessonRepository(db, nil),
		exercises: repository.NewExerciseRepository(db),
		prompts:   p,
		log:       logger.Nop(),
	}
}

func (f *fixture) builder() *BuildUseCase {
	return NewBuildUseCase(f.sessions, f.courses, f.model, f.prompts, NewIntentRouter(f.model, f.prompts), f.log)
}

const draftJSON = `{
	"title": "Intro to X",
	"description": "Everything about X",
	"sections": [
		{"title": "Basics", "lessons": [
			{"title": "What is X", "description": "definitions"},
			{"title": "Why X", "description": "motivation"}
		]},
		{"title": "Advanced", "lessons": [{"title": "Deep X", "description": "details"}]}
	]
}`

func buildReply(draft string) string {
	return `{"response": "Here is a plan. Any changes?", "draft": ` + draft + `}`
}
