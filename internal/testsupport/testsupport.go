// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"context"
	"hash/fnv"
	"math"
	"path/filepath"
	"testing"

	"inkwell/internal/config"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory so tests never touch the real user directories.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.OutputDir = filepath.Join(base, "outputs")
	cfg.Paths.DocsDir = filepath.Join(base, "docs")
	cfg.Paths.StoreDir = filepath.Join(base, "store")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test-api-key"
	cfg.Embedding.APIKey = "test-embed-key"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

const embeddingDims = 64

// Embedding returns a deterministic local embedding for text. Vectors are
// normalized so cosine similarity behaves like the hosted backends; identical
// texts always map to identical vectors. Tests inject this in place of a
// network embedding func.
func Embedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDims)
	runes := []rune(text)
	for i := 0; i+2 < len(runes); i++ {
		h := fnv.New32a()
		h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%embeddingDims]++
	}
	if len(runes) <= 3 {
		h := fnv.New32a()
		h.Write([]byte(text))
		vec[h.Sum32()%embeddingDims] = 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
