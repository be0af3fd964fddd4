package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/prompts"
)

type Intent string

const (
	IntentBuild   Intent = "build"
	IntentApprove Intent = "approve"
)

// IntentRouter решает, правит ли пользователь курс или одобряет его.
type IntentRouter struct {
	model   llm.Client
	prompts *prompts.Catalogue
}

func NewIntentRouter(model llm.Client, p *prompts.Catalogue) *IntentRouter {
	return &IntentRouter{model: model, prompts: p}
}

// Route returns IntentBuild or IntentApprove. Any other classifier output is
// domain.ErrRoutingFailed; there is no fallback route.
func (r *IntentRouter) Route(ctx context.Context, message string) (Intent, error) {
	system, err := r.prompts.Render(prompts.RouteSystem, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.model.Chat(ctx, llm.ChatRequest{
		Task:     llm.TaskRoute,
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: message}},
	})
	if err != nil {
		return "", err
	}

	key := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Text), "\"'`."))
	switch Intent(key) {
	case IntentBuild, IntentApprove:
		return Intent(key), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrRoutingFailed, resp.Text)
	}
}
