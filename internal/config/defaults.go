package config

const (
	defaultDownloadDir = "~/.local/share/inkwell/downloads"
	defaultOutputDir   = "~/.local/share/inkwell/outputs"
	defaultDocsDir     = "~/.local/share/inkwell/docs"
	defaultStoreDir    = "~/.local/share/inkwell/store"
	defaultLogDir      = "~/.local/share/inkwell/logs"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/inkwell-pipeline/inkwell"
	defaultLLMTitle          = "Inkwell Book Pipeline"
	defaultLLMTemperature    = 0.7
	defaultLLMTimeoutSeconds = 120

	defaultEmbeddingBaseURL = "https://api.openai.com/v1"
	defaultEmbeddingModel   = "text-embedding-3-small"

	defaultTitleSelector        = "h1"
	defaultContentSelector      = "#mw-content-text"
	defaultSourceTimeoutSeconds = 30
	defaultSourceUserAgent      = "inkwell/dev"

	defaultWriterPrompt   = "writer"
	defaultReviewerPrompt = "reviewer"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Environment variables consulted when the config file leaves keys empty.
const (
	EnvAPIKey      = "INKWELL_API_KEY"
	EnvEmbedAPIKey = "INKWELL_EMBED_API_KEY"
	EnvOpenAIKey   = "OPENAI_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			OutputDir:   defaultOutputDir,
			DocsDir:     defaultDocsDir,
			StoreDir:    defaultStoreDir,
			LogDir:      defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Embedding: Embedding{
			BaseURL: defaultEmbeddingBaseURL,
			Model:   defaultEmbeddingModel,
		},
		Source: Source{
			TitleSelector:   defaultTitleSelector,
			ContentSelector: defaultContentSelector,
			TimeoutSeconds:  defaultSourceTimeoutSeconds,
			UserAgent:       defaultSourceUserAgent,
		},
		Prompts: Prompts{
			Writer:   defaultWriterPrompt,
			Reviewer: defaultReviewerPrompt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
