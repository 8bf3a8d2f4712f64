package reviewer_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkwell/internal/prompt"
	"inkwell/internal/reviewer"
	"inkwell/internal/services"
	"inkwell/internal/services/llm"
	"inkwell/internal/testsupport"
)

func newAgent(t *testing.T, serverURL string) *reviewer.Agent {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	client := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: serverURL,
		Model:   "test/model",
	}, llm.WithSleeper(func(time.Duration) {}), llm.WithRetryMaxAttempts(1))
	return reviewer.New(cfg, client, prompt.NewLibrary())
}

func TestReviewSendsOriginalAndDraft(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Tighten the opening paragraph."}}]}`))
	}))
	defer server.Close()

	agent := newAgent(t, server.URL)
	feedback, err := agent.Review(context.Background(), "the original text", "the rewritten text")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if feedback.Text != "Tighten the opening paragraph." {
		t.Fatalf("feedback text = %q", feedback.Text)
	}
	if feedback.Template != prompt.ReviewerTemplate {
		t.Fatalf("feedback template = %q", feedback.Template)
	}

	var payload struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(gotBody), &payload); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	userPrompt := payload.Messages[len(payload.Messages)-1].Content
	if !strings.Contains(userPrompt, "the original text") || !strings.Contains(userPrompt, "the rewritten text") {
		t.Fatalf("user prompt missing inputs: %q", userPrompt)
	}
}

func TestReviewRejectsMissingInputs(t *testing.T) {
	agent := newAgent(t, "http://127.0.0.1:0")
	if _, err := agent.Review(context.Background(), "", "draft"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty original, got %v", err)
	}
	if _, err := agent.Review(context.Background(), "original", " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty draft, got %v", err)
	}
}

func TestReviewWrapsBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	agent := newAgent(t, server.URL)
	_, err := agent.Review(context.Background(), "original", "draft")
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "Reviewed") {
		t.Fatalf("error should name the review stage: %v", err)
	}
}
