// Package reviewer critiques an AI-rewritten draft against its original.
package reviewer

import (
	"context"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/prompt"
	"inkwell/internal/services"
	"inkwell/internal/services/llm"
)

const stageLabel = "Reviewed"

const systemPrompt = "You are an experienced book editor reviewing a rewritten chapter. " +
	"Judge fidelity to the original, coherence, tone, and clarity. " +
	"Respond with actionable feedback for the writer."

// Feedback is the result of a review call.
type Feedback struct {
	Text     string
	Model    string
	Template string
}

// Agent produces editorial feedback via the chat completion backend.
type Agent struct {
	client       *llm.Client
	library      *prompt.Library
	templateName string
}

// New constructs a reviewer agent.
func New(cfg *config.Config, client *llm.Client, library *prompt.Library) *Agent {
	templateName := strings.TrimSpace(cfg.Prompts.Reviewer)
	if templateName == "" {
		templateName = prompt.ReviewerTemplate
	}
	return &Agent{
		client:       client,
		library:      library,
		templateName: templateName,
	}
}

// Review compares the draft against the original chapter text.
func (a *Agent) Review(ctx context.Context, original, draft string) (*Feedback, error) {
	if strings.TrimSpace(original) == "" {
		return nil, services.Wrap(services.ErrValidation, stageLabel, "review", "original text is empty", nil)
	}
	if strings.TrimSpace(draft) == "" {
		return nil, services.Wrap(services.ErrValidation, stageLabel, "review", "draft text is empty", nil)
	}

	template, err := a.library.Get(a.templateName)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageLabel, "resolve prompt", a.templateName, err)
	}

	userPrompt, err := template.Render(map[string]string{
		prompt.ParamOriginal: original,
		prompt.ParamDraft:    draft,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageLabel, "render prompt", a.templateName, err)
	}

	text, err := a.client.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, services.Wrap(services.ErrGeneration, stageLabel, "complete", "", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrGeneration, stageLabel, "complete", "model returned empty feedback", nil)
	}

	return &Feedback{
		Text:     text,
		Model:    a.client.Model(),
		Template: template.Name,
	}, nil
}
