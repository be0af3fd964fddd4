package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest holds the parameters for a model call.
type ChatRequest struct {
	Task     Task
	System   string
	Messages []Message
	// JSON asks the server to constrain output to a JSON document.
	JSON bool
}

type ChatResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Client provides access to a chat model.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Available(ctx context.Context) bool
}

// ollamaClient implements Client using the Ollama HTTP API.
type ollamaClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

func NewOllamaClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &ollamaClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// ollamaRequest is the JSON body sent to POST /api/chat.
type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type ollamaResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *ollamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	taskCfg := c.cfg.Tasks[req.Task]

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout(req.Task))
	defer cancel()

	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.System})
	}
	messages = append(messages, req.Messages...)

	body := ollamaRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: taskCfg.Temperature,
			NumPredict:  taskCfg.MaxTokens,
			NumCtx:      c.cfg.ContextWindow,
		},
	}
	if req.JSON {
		body.Format = "json"
	}

	var lastErr error
	attempts := 0
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(CallEvent{
				Task:      req.Task,
				Model:     c.cfg.Model,
				Attempts:  attempts,
				LatencyMs: latency,
				Success:   true,
			})
			return &ChatResponse{
				Text:      resp.Message.Content,
				Model:     resp.Model,
				LatencyMs: latency,
			}, nil
		}
		lastErr = err

		// Контекст истёк - повторять бессмысленно
		if ctx.Err() != nil || attempts > c.cfg.MaxRetries || !c.backoff(ctx, attempts) {
			break
		}
	}

	var result error
	switch {
	case ctx.Err() != nil:
		result = ErrTimeout
	case isConnectionError(lastErr):
		result = ErrModelUnavailable
	case errors.Is(lastErr, ErrEmptyReply):
		result = lastErr
	default:
		result = fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}

	c.observer.OnCallComplete(CallEvent{
		Task:      req.Task,
		Model:     c.cfg.Model,
		Attempts:  attempts,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   false,
		ErrorCode: errorCode(result),
	})
	return nil, result
}

// backoff waits before the next attempt; false means the context ended first.
func (c *ollamaClient) backoff(ctx context.Context, attempt int) bool {
	if c.cfg.RetryBackoff <= 0 {
		return true
	}
	timer := time.NewTimer(time.Duration(attempt) * c.cfg.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *ollamaClient) doRequest(ctx context.Context, body ollamaRequest) (*ollamaResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return nil, ErrEmptyReply
	}

	return &resp, nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return err != nil && errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrModelUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrEmptyReply):
		return "EMPTY"
	default:
		return "UNKNOWN"
	}
}
