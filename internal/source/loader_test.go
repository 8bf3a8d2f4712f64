package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkwell/internal/lineage"
	"inkwell/internal/services"
	"inkwell/internal/source"
	"inkwell/internal/testsupport"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>ignored</title></head>
<body>
<h1>The Gates of Morning</h1>
<div id="mw-content-text">
<p>Once upon a time.</p>


<p>The lagoon lay quiet.</p>
</div>
</body>
</html>`

func TestLoadWebExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)

	result, err := loader.Load(context.Background(), source.Request{
		Kind:     lineage.SourceWeb,
		Location: server.URL,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Title != "The Gates of Morning" {
		t.Fatalf("title = %q", result.Title)
	}
	if result.ChapterID != "the_gates_of_morning" {
		t.Fatalf("chapter id = %q", result.ChapterID)
	}
	if !strings.Contains(result.Text, "Once upon a time.") || !strings.Contains(result.Text, "The lagoon lay quiet.") {
		t.Fatalf("text = %q", result.Text)
	}

	raw, err := os.ReadFile(result.RawPath)
	if err != nil {
		t.Fatalf("raw text not persisted: %v", err)
	}
	if string(raw) != result.Text {
		t.Fatal("raw file does not match loaded text")
	}
}

func TestLoadWebExplicitTitleAndID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)

	result, err := loader.Load(context.Background(), source.Request{
		Kind:      lineage.SourceWeb,
		Location:  server.URL,
		Title:     "Chapter One",
		ChapterID: "ch01",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Title != "Chapter One" || result.ChapterID != "ch01" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestLoadWebSelectorMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>no content div</p></body></html>"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)

	_, err := loader.Load(context.Background(), source.Request{Kind: lineage.SourceWeb, Location: server.URL})
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestLoadWebHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)

	_, err := loader.Load(context.Background(), source.Request{Kind: lineage.SourceWeb, Location: server.URL})
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(t.TempDir(), "chapter_one.txt")
	if err := os.WriteFile(path, []byte("Once upon a time.\n\n\nThe end.\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := source.NewLoader(cfg)
	result, err := loader.Load(context.Background(), source.Request{Kind: lineage.SourceFile, Location: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Title != "Chapter One" {
		t.Fatalf("title = %q", result.Title)
	}
	if result.Text != "Once upon a time.\n\nThe end." {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)

	_, err := loader.Load(context.Background(), source.Request{
		Kind:     lineage.SourceFile,
		Location: filepath.Join(t.TempDir(), "missing.txt"),
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadRejectsEmptyLocation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	loader := source.NewLoader(cfg)
	if _, err := loader.Load(context.Background(), source.Request{Kind: lineage.SourceFile}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
