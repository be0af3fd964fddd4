package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/waste3d/courseforge/internal/application/session"
	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/infrastructure/cache"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/infrastructure/security"
	"github.com/waste3d/courseforge/internal/middleware"
	"github.com/waste3d/courseforge/internal/prompts"
	"github.com/waste3d/courseforge/internal/testutil"
	handlers "github.com/waste3d/courseforge/internal/transport/http"
)

// stubModel отвечает фиксированным текстом на каждую задачу.
type stubModel map[llm.Task]string

func (m stubModel) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	text, ok := m[req.Task]
	if !ok {
		return nil, llm.ErrModelUnavailable
	}
	return &llm.ChatResponse{Text: text}, nil
}

func (m stubModel) Available(context.Context) bool { return true }

const buildReply = "```json\n" + `{"response":"Plan ready?","draft":{"title":"Go Basics","description":"Learn Go","sections":[{"title":"Start","lessons":[{"title":"Hello","description":"first program"}]}]}}` + "\n```"

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewRedis(t)
	p, err := prompts.Load()
	require.NoError(t, err)
	log := logger.Nop()

	model := stubModel{
		llm.TaskBuild:            buildReply,
		llm.TaskRoute:            "build",
		llm.TaskLesson:           "Para1.\n\nPara2.",
		llm.TaskExercise:         "Write hello world.",
		llm.TaskExerciseTitle:    "Hello",
		llm.TaskExerciseSolution: "fmt.Println",
	}

	courses := repository.NewCourseRepository(db, rdb)
	lessons := repository.NewLessonRepository(db, rdb)
	exercises := repository.NewExerciseRepository(db)
	auth := usecase.NewAuthUseCase(
		repository.NewUserRepository(db),
		cache.NewAuthSessionCache(rdb, time.Hour),
		security.NewPasswordHasher(bcrypt.MinCost),
		security.NewSessionSigner("secret", time.Hour),
	)

	builder := usecase.NewBuildUseCase(session.NewMemoryStore(), courses, model, p, usecase.NewIntentRouter(model, p), log)
	return handlers.NewRouter(handlers.RouterDeps{
		Chat:      handlers.NewChatHandler(builder, usecase.NewTeachUseCase(lessons, model, p, log)),
		Courses:   handlers.NewCourseHandler(usecase.NewCatalogUseCase(courses, lessons, exercises)),
		Exercises: handlers.NewExerciseHandler(usecase.NewExerciseUseCase(lessons, courses, exercises, model, p, log)),
		Auth:      handlers.NewAuthHandler(auth, time.Hour),
		Sessions:  middleware.NewSessionAuth(auth, time.Hour, log),
		Limiter:   middleware.NewRateLimiter(rdb),
		Log:       log,
	})
}

type envelope struct {
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Retryable bool            `json:"retryable"`
}

func do(t *testing.T, r *gin.Engine, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestHealthz(t *testing.T) {
	w, _ := do(t, newServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestChat_UnknownPurpose(t *testing.T) {
	w, env := do(t, newServer(t), http.MethodPost, "/api/chat", gin.H{"purpose": "poetry", "message": "hi", "session_id": "s"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.OK)
	assert.Equal(t, "unknown_purpose", env.Code)
}

func TestChat_BuildApproveAndBrowse(t *testing.T) {
	r := newServer(t)

	w, env := do(t, r, http.MethodPost, "/api/approve", gin.H{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no_draft", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "build", "message": "a Go course", "session_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var chat usecase.ChatResult
	require.NoError(t, json.Unmarshal(env.Result, &chat))
	assert.Equal(t, "Plan ready?", chat.Response)
	assert.Equal(t, "Go Basics", chat.Draft["title"])

	w, env = do(t, r, http.MethodPost, "/api/approve", gin.H{"session_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var courseID uint
	require.NoError(t, json.Unmarshal(env.Result, &courseID))
	assert.NotZero(t, courseID)

	w, env = do(t, r, http.MethodGet, "/api/list-courses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var courses []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "go-basics", courses[0]["slug"])

	w, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/list-sections?course_id=%d", courseID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sections []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &sections))
	require.Len(t, sections, 1)

	w, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/list-lessons?section_id=%v", sections[0]["id"]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lessons []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &lessons))
	require.Len(t, lessons, 1)
	lessonID := fmt.Sprintf("%v", lessons[0]["id"])

	// Урок: start, continue, исчерпан
	w, env = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": "start", "session_id": lessonID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply usecase.LessonReply
	require.NoError(t, json.Unmarshal(env.Result, &reply))
	assert.Equal(t, "Para1.", reply.Response)
	assert.True(t, reply.HasMore)

	w, _ = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": "continue", "session_id": lessonID})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": "continue", "session_id": lessonID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "lesson_exhausted", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": "start", "session_id": lessonID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", env.Code)

	w, env = do(t, r, http.MethodGet, "/api/get-lesson?lesson_id="+lessonID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lesson map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &lesson))
	assert.Len(t, lesson["messages"], 2)

	// Упражнение
	w, _ = do(t, r, http.MethodPost, "/api/commit-exercise", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"result":null}`, w.Body.String())

	w, _ = do(t, r, http.MethodPost, "/api/create-exercise", gin.H{"lesson_id": lessons[0]["id"]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env = do(t, r, http.MethodPost, "/api/commit-exercise", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ex map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &ex))
	assert.Equal(t, "Hello", ex["title"])

	w, env = do(t, r, http.MethodGet, "/api/list-exercises?lesson_id="+lessonID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exercises []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &exercises))
	assert.Len(t, exercises, 1)

	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/get-exercise?ex_id=%v", ex["id"]), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat_LearnNeedsNumericLesson(t *testing.T) {
	w, env := do(t, newServer(t), http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": "start", "session_id": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", env.Code)
}

func TestChat_LearnRejectsBlankMessage(t *testing.T) {
	for _, msg := range []string{"", "   \n"} {
		w, env := do(t, newServer(t), http.MethodPost, "/api/chat", gin.H{"purpose": "learn", "message": msg, "session_id": "1"})
		assert.Equal(t, http.StatusBadRequest, w.Code, "%q", msg)
		assert.Equal(t, "bad_request", env.Code, "%q", msg)
	}
}

func TestRegister_BlankUsername(t *testing.T) {
	w, env := do(t, newServer(t), http.MethodPost, "/api/register", gin.H{"username": "   ", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", env.Code)
}

func TestCatalog_BadQuery(t *testing.T) {
	r := newServer(t)
	for _, path := range []string{"/api/list-sections", "/api/list-lessons?section_id=x", "/api/get-exercise?ex_id=0"} {
		w, env := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "bad_request", env.Code, path)
	}

	w, env := do(t, r, http.MethodGet, "/api/get-lesson?lesson_id=42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)
}

func TestAuthFlowAndOwnedDelete(t *testing.T) {
	r := newServer(t)

	w, _ := do(t, r, http.MethodPost, "/api/register", gin.H{"username": "dave", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := do(t, r, http.MethodPost, "/api/register", gin.H{"username": "dave", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user_exists", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/login", gin.H{"username": "dave", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", env.Code)

	w, _ = do(t, r, http.MethodPost, "/api/login", gin.H{"username": "dave", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var sid *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			sid = ck
		}
	}
	require.NotNil(t, sid)

	w, env = do(t, r, http.MethodGet, "/api/me", nil, sid)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &me))
	assert.Equal(t, "dave", me["username"])
	assert.NotContains(t, me, "password")

	// Курс с владельцем
	_, _ = do(t, r, http.MethodPost, "/api/chat", gin.H{"purpose": "build", "message": "go", "session_id": "s"}, sid)
	w, env = do(t, r, http.MethodPost, "/api/approve", gin.H{"session_id": "s"}, sid)
	require.Equal(t, http.StatusOK, w.Code)
	var courseID uint
	require.NoError(t, json.Unmarshal(env.Result, &courseID))

	w, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/delete-course?course_id=%d", courseID), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not_authenticated", env.Code)

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/delete-course?course_id=%d", courseID), nil, sid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodGet, "/api/list-courses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var remaining []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &remaining))
	assert.Empty(t, remaining)

	w, _ = do(t, r, http.MethodPost, "/api/logout", nil, sid)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/me", nil, sid)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	r := newServer(t)
	var last int
	for i := 0; i < 6; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/login", gin.H{"username": "nobody", "password": "whatever"})
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
