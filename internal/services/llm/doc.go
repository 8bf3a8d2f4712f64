// Package llm wraps an OpenAI-compatible chat completion endpoint for the
// writer and reviewer agents. Requests retry transparently on rate limits
// and transient transport failures; empty completions are errors.
package llm
