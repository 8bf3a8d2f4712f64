package versionstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/lineage"
	"inkwell/internal/services"
	"inkwell/internal/testsupport"
	"inkwell/internal/versionstore"
)

func openStore(t *testing.T) (*versionstore.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := versionstore.Open(cfg, versionstore.WithEmbeddingFunc(testsupport.Embedding))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, cfg
}

func mustChapter(t *testing.T, store *versionstore.Store, chapterID string) *lineage.Chapter {
	t.Helper()
	chapter, err := store.NewChapter(context.Background(), chapterID, "Chapter "+chapterID, "https://example.test/"+chapterID, lineage.SourceWeb)
	if err != nil {
		t.Fatalf("new chapter: %v", err)
	}
	return chapter
}

func mustPut(t *testing.T, store *versionstore.Store, chapterID string, stage lineage.Stage, text string) *lineage.Version {
	t.Helper()
	stored, err := store.Put(context.Background(), &lineage.Version{
		ChapterID: chapterID,
		Stage:     stage,
		Text:      text,
	})
	if err != nil {
		t.Fatalf("put %s version: %v", stage, err)
	}
	return stored
}

func TestPutAssignsStrictlyIncreasingSequences(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")

	original := mustPut(t, store, "ch01", lineage.StageOriginal, "the original text")
	draft := mustPut(t, store, "ch01", lineage.StageAIDraft, "the rewritten text")
	feedback := mustPut(t, store, "ch01", lineage.StageAIFeedback, "feedback on the rewrite")

	if original.Sequence != 1 || draft.Sequence != 2 || feedback.Sequence != 3 {
		t.Fatalf("sequences = %d, %d, %d", original.Sequence, draft.Sequence, feedback.Sequence)
	}

	versions, err := store.Versions(ctx, "ch01")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("version count = %d", len(versions))
	}
	for i, version := range versions {
		if version.Sequence != i+1 {
			t.Fatalf("version %d has sequence %d", i, version.Sequence)
		}
	}
}

func TestPutConcurrentAcrossChapters(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	chapters := []string{"ch01", "ch02", "ch03"}
	for _, chapterID := range chapters {
		mustChapter(t, store, chapterID)
	}

	const perChapter = 4
	var wg sync.WaitGroup
	errs := make(chan error, len(chapters))
	for _, chapterID := range chapters {
		wg.Add(1)
		go func(chapterID string) {
			defer wg.Done()
			for i := 0; i < perChapter; i++ {
				_, err := store.Put(ctx, &lineage.Version{
					ChapterID: chapterID,
					Stage:     lineage.StageOriginal,
					Text:      fmt.Sprintf("%s passage %d", chapterID, i),
				})
				if err != nil {
					errs <- fmt.Errorf("put %s: %w", chapterID, err)
					return
				}
			}
		}(chapterID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent put: %v", err)
	}

	for _, chapterID := range chapters {
		versions, err := store.Versions(ctx, chapterID)
		if err != nil {
			t.Fatalf("Versions(%s): %v", chapterID, err)
		}
		if len(versions) != perChapter {
			t.Fatalf("chapter %s version count = %d", chapterID, len(versions))
		}
		for i, version := range versions {
			if version.Sequence != i+1 {
				t.Fatalf("chapter %s position %d has sequence %d", chapterID, i, version.Sequence)
			}
		}
	}
}

func TestPutPreservesMetadata(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")

	_, err := store.Put(ctx, &lineage.Version{
		ChapterID: "ch01",
		Stage:     lineage.StageAIDraft,
		Text:      "draft text",
		Metadata: map[string]string{
			lineage.MetaModel:          "test/model",
			lineage.MetaPromptTemplate: "writer",
		},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := store.LatestByStage(ctx, "ch01", lineage.StageAIDraft)
	if err != nil {
		t.Fatalf("LatestByStage: %v", err)
	}
	if loaded.Metadata[lineage.MetaModel] != "test/model" {
		t.Fatalf("metadata = %v", loaded.Metadata)
	}
}

func TestPutRejectsUnknownChapter(t *testing.T) {
	store, _ := openStore(t)
	_, err := store.Put(context.Background(), &lineage.Version{
		ChapterID: "ghost",
		Stage:     lineage.StageOriginal,
		Text:      "text",
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsEmptyText(t *testing.T) {
	store, _ := openStore(t)
	mustChapter(t, store, "ch01")
	_, err := store.Put(context.Background(), &lineage.Version{
		ChapterID: "ch01",
		Stage:     lineage.StageOriginal,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFinalRequiresDraftAndIsUnique(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")
	mustPut(t, store, "ch01", lineage.StageOriginal, "original text")

	_, err := store.Put(ctx, &lineage.Version{ChapterID: "ch01", Stage: lineage.StageFinal, Text: "final text"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation before any draft, got %v", err)
	}

	mustPut(t, store, "ch01", lineage.StageAIDraft, "draft text")
	mustPut(t, store, "ch01", lineage.StageFinal, "final text")

	_, err = store.Put(ctx, &lineage.Version{ChapterID: "ch01", Stage: lineage.StageFinal, Text: "second final"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for second final, got %v", err)
	}
}

func TestNewChapterIsIdempotent(t *testing.T) {
	store, _ := openStore(t)
	first := mustChapter(t, store, "ch01")
	second := mustChapter(t, store, "ch01")
	if first.ID != second.ID {
		t.Fatalf("expected existing chapter row, got ids %d and %d", first.ID, second.ID)
	}
}

func TestChapterByIDNotFound(t *testing.T) {
	store, _ := openStore(t)
	_, err := store.ChapterByID(context.Background(), "ghost")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateChapterPersistsStatus(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	chapter := mustChapter(t, store, "ch01")

	chapter.Status = lineage.StatusFetched
	if err := store.UpdateChapter(ctx, chapter); err != nil {
		t.Fatalf("UpdateChapter: %v", err)
	}

	loaded, err := store.ChapterByID(ctx, "ch01")
	if err != nil {
		t.Fatalf("ChapterByID: %v", err)
	}
	if loaded.Status != lineage.StatusFetched {
		t.Fatalf("status = %q", loaded.Status)
	}
}

func TestMarkForRedraft(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")

	if err := store.MarkForRedraft(ctx, "ch01"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation without original, got %v", err)
	}

	mustPut(t, store, "ch01", lineage.StageOriginal, "original text")
	chapter, _ := store.ChapterByID(ctx, "ch01")
	chapter.SetFailed("draft failed")
	if err := store.UpdateChapter(ctx, chapter); err != nil {
		t.Fatalf("UpdateChapter: %v", err)
	}

	if err := store.MarkForRedraft(ctx, "ch01"); err != nil {
		t.Fatalf("MarkForRedraft: %v", err)
	}
	loaded, err := store.ChapterByID(ctx, "ch01")
	if err != nil {
		t.Fatalf("ChapterByID: %v", err)
	}
	if loaded.Status != lineage.StatusFetched || loaded.ErrorMessage != "" {
		t.Fatalf("chapter after redraft = %+v", loaded)
	}
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "sea")
	mustChapter(t, store, "city")

	mustPut(t, store, "sea", lineage.StageOriginal, "the schooner crossed the lagoon under a red morning sky")
	mustPut(t, store, "city", lineage.StageOriginal, "traffic roared between the glass towers of the financial district")

	matches, err := store.Search(ctx, "the schooner crossed the lagoon under a red morning sky", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("match count = %d", len(matches))
	}
	if matches[0].Version.ChapterID != "sea" {
		t.Fatalf("best match chapter = %q", matches[0].Version.ChapterID)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Fatal("matches not ordered by similarity")
	}
}

func TestSearchTieBreakPrefersLowerSequence(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")

	// Identical text embeds identically, so both versions tie on similarity.
	mustPut(t, store, "ch01", lineage.StageOriginal, "the same chapter text")
	mustPut(t, store, "ch01", lineage.StageAIDraft, "the same chapter text")

	matches, err := store.Search(ctx, "the same chapter text", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("match count = %d", len(matches))
	}
	if matches[0].Version.Sequence != 1 || matches[1].Version.Sequence != 2 {
		t.Fatalf("tie-break order = %d, %d", matches[0].Version.Sequence, matches[1].Version.Sequence)
	}
}

func TestSearchTieBreakAcrossChapters(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "aaa")
	mustChapter(t, store, "zzz")

	// Chapter aaa holds the tied text at sequence 3, chapter zzz at
	// sequence 1. The lower sequence wins regardless of chapter order.
	mustPut(t, store, "aaa", lineage.StageOriginal, "an unrelated opening scene")
	mustPut(t, store, "aaa", lineage.StageAIDraft, "another unrelated passage")
	mustPut(t, store, "aaa", lineage.StageAIFeedback, "the same chapter text")
	mustPut(t, store, "zzz", lineage.StageOriginal, "the same chapter text")

	matches, err := store.Search(ctx, "the same chapter text", 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 4 {
		t.Fatalf("match count = %d", len(matches))
	}
	first := matches[0].Version
	if first.ChapterID != "zzz" || first.Sequence != 1 {
		t.Fatalf("first match = %s sequence %d", first.ChapterID, first.Sequence)
	}
	second := matches[1].Version
	if second.ChapterID != "aaa" || second.Sequence != 3 {
		t.Fatalf("second match = %s sequence %d", second.ChapterID, second.Sequence)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")
	mustPut(t, store, "ch01", lineage.StageOriginal, "a single stored version")

	matches, err := store.Search(ctx, "a single stored version", 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("match count = %d", len(matches))
	}
}

func TestSearchEmptyStore(t *testing.T) {
	store, _ := openStore(t)
	matches, err := store.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("match count = %d", len(matches))
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	store, _ := openStore(t)
	if _, err := store.Search(context.Background(), "  ", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOpenBadStoreDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Paths.StoreDir = filepath.Join(blocker, "store")

	_, err := versionstore.Open(cfg, versionstore.WithEmbeddingFunc(testsupport.Embedding))
	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestOpenRefusesSecondProcess(t *testing.T) {
	_, cfg := openStore(t)
	_, err := versionstore.Open(cfg, versionstore.WithEmbeddingFunc(testsupport.Embedding))
	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestStatsCountsChaptersAndVersions(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	mustChapter(t, store, "ch01")
	mustChapter(t, store, "ch02")
	mustPut(t, store, "ch01", lineage.StageOriginal, "original text")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("total = %d", stats.Total)
	}
	if stats.ByStatus[lineage.StatusPlanned] != 2 {
		t.Fatalf("planned = %d", stats.ByStatus[lineage.StatusPlanned])
	}
	if stats.Versions != 1 || stats.Indexed != 1 {
		t.Fatalf("versions = %d, indexed = %d", stats.Versions, stats.Indexed)
	}
}
