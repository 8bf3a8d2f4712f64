// Package writer turns an original chapter into an AI-rewritten draft.
package writer

import (
	"context"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/prompt"
	"inkwell/internal/services"
	"inkwell/internal/services/llm"
)

const stageLabel = "Drafted"

const systemPrompt = "You are a skilled creative writer rewriting book chapters. " +
	"Preserve the plot and the characters of the source material while improving prose quality. " +
	"Respond with the rewritten chapter text only, without commentary."

// Draft is the result of a rewrite call.
type Draft struct {
	Text     string
	Model    string
	Template string
}

// Agent produces rewritten chapter drafts via the chat completion backend.
type Agent struct {
	client       *llm.Client
	library      *prompt.Library
	templateName string
}

// New constructs a writer agent. The template name comes from configuration
// and must resolve in the supplied library at call time.
func New(cfg *config.Config, client *llm.Client, library *prompt.Library) *Agent {
	templateName := strings.TrimSpace(cfg.Prompts.Writer)
	if templateName == "" {
		templateName = prompt.WriterTemplate
	}
	return &Agent{
		client:       client,
		library:      library,
		templateName: templateName,
	}
}

// Draft rewrites the original chapter text.
func (a *Agent) Draft(ctx context.Context, original string) (*Draft, error) {
	if strings.TrimSpace(original) == "" {
		return nil, services.Wrap(services.ErrValidation, stageLabel, "draft", "original text is empty", nil)
	}

	template, err := a.library.Get(a.templateName)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageLabel, "resolve prompt", a.templateName, err)
	}

	userPrompt, err := template.Render(map[string]string{
		prompt.ParamOriginal: original,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageLabel, "render prompt", a.templateName, err)
	}

	text, err := a.client.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, services.Wrap(services.ErrGeneration, stageLabel, "complete", "", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrGeneration, stageLabel, "complete", "model returned empty draft", nil)
	}

	return &Draft{
		Text:     text,
		Model:    a.client.Model(),
		Template: template.Name,
	}, nil
}
