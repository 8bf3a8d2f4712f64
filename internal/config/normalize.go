package config

import (
	"os"
	"strings"
)

// normalize trims string fields, applies environment fallbacks for
// credentials, and expands all path fields to absolute paths.
func (c *Config) normalize() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	c.Embedding.APIKey = strings.TrimSpace(c.Embedding.APIKey)
	if c.Embedding.APIKey == "" {
		for _, env := range []string{EnvEmbedAPIKey, EnvOpenAIKey} {
			if value := strings.TrimSpace(os.Getenv(env)); value != "" {
				c.Embedding.APIKey = value
				break
			}
		}
	}
	// The embedding backend shares the generation credential when none of
	// its own is configured.
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	c.Embedding.BaseURL = strings.TrimSpace(c.Embedding.BaseURL)
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = defaultEmbeddingBaseURL
	}
	c.Embedding.Model = strings.TrimSpace(c.Embedding.Model)
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}

	c.Source.TitleSelector = strings.TrimSpace(c.Source.TitleSelector)
	if c.Source.TitleSelector == "" {
		c.Source.TitleSelector = defaultTitleSelector
	}
	c.Source.ContentSelector = strings.TrimSpace(c.Source.ContentSelector)
	if c.Source.ContentSelector == "" {
		c.Source.ContentSelector = defaultContentSelector
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultSourceUserAgent
	}

	c.Prompts.Writer = strings.TrimSpace(c.Prompts.Writer)
	if c.Prompts.Writer == "" {
		c.Prompts.Writer = defaultWriterPrompt
	}
	c.Prompts.Reviewer = strings.TrimSpace(c.Prompts.Reviewer)
	if c.Prompts.Reviewer == "" {
		c.Prompts.Reviewer = defaultReviewerPrompt
	}

	c.Logging.Format = strings.TrimSpace(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.TrimSpace(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	paths := []*string{
		&c.Paths.DownloadDir,
		&c.Paths.OutputDir,
		&c.Paths.DocsDir,
		&c.Paths.StoreDir,
		&c.Paths.LogDir,
		&c.Prompts.Dir,
	}
	for _, path := range paths {
		if strings.TrimSpace(*path) == "" {
			continue
		}
		expanded, err := expandPath(*path)
		if err != nil {
			return err
		}
		*path = expanded
	}
	return nil
}
