package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.RetryBackoff = 0
	return cfg
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ollamaResponse{
		Model:   "qwen2",
		Message: Message{Role: RoleAssistant, Content: content},
		Done:    true,
	})
}

type recordingObserver struct {
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) { o.events = append(o.events, e) }

func TestOllamaClient_Chat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "be helpful", req.Messages[0].Content)
		assert.Equal(t, "hi", req.Messages[1].Content)
		assert.Equal(t, RoleAssistant, req.Messages[2].Role)

		reply(w, `{"response":"ok"}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewOllamaClient(testConfig(srv.URL), obs)
	resp, err := client.Chat(context.Background(), ChatRequest{
		Task:   TaskBuild,
		System: "be helpful",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
		JSON: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"response":"ok"}`, resp.Text)
	assert.Equal(t, "qwen2", resp.Model)
	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
}

func TestOllamaClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[Task]TaskConfig{TaskRoute: {Timeout: 50 * time.Millisecond}}

	client := NewOllamaClient(cfg, nil)
	_, err := client.Chat(context.Background(), ChatRequest{Task: TaskRoute})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllamaClient_Chat_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	cfg.Timeout = time.Second

	client := NewOllamaClient(cfg, nil)
	_, err := client.Chat(context.Background(), ChatRequest{Task: TaskAnswer})

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestOllamaClient_Chat_RetryOnTransientError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal error"))
			return
		}
		reply(w, "ok")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	client := NewOllamaClient(cfg, nil)
	resp, err := client.Chat(context.Background(), ChatRequest{Task: TaskSummary})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestOllamaClient_Chat_RetryExhausted(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2

	obs := &recordingObserver{}
	client := NewOllamaClient(cfg, obs)
	_, err := client.Chat(context.Background(), ChatRequest{Task: TaskLesson})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, 3, obs.events[0].Attempts)
}

func TestOllamaClient_Chat_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(w, "   ")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0

	client := NewOllamaClient(cfg, nil)
	_, err := client.Chat(context.Background(), ChatRequest{Task: TaskSummary})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOllamaClient_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, NewOllamaClient(testConfig(srv.URL), nil).Available(context.Background()))
	assert.False(t, NewOllamaClient(testConfig("http://127.0.0.1:1"), nil).Available(context.Background()))
}

func TestConfig_TaskTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.TaskTimeout(TaskRoute))
	assert.Equal(t, cfg.Timeout, cfg.TaskTimeout(TaskAnswer))
	assert.Equal(t, cfg.Timeout, cfg.TaskTimeout(Task("unknown")))
}
