package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/config"
	"inkwell/internal/fileutil"
	"inkwell/internal/lineage"
	"inkwell/internal/logging"
	"inkwell/internal/reviewer"
	"inkwell/internal/services"
	"inkwell/internal/source"
	"inkwell/internal/textutil"
	"inkwell/internal/versionstore"
	"inkwell/internal/writer"
)

// Runner drives chapters through the pipeline stages.
type Runner struct {
	cfg      *config.Config
	store    *versionstore.Store
	loader   *source.Loader
	writer   *writer.Agent
	reviewer *reviewer.Agent
	gate     Gate
	logger   *slog.Logger
}

// NewRunner constructs a pipeline runner from its collaborators.
func NewRunner(
	cfg *config.Config,
	store *versionstore.Store,
	loader *source.Loader,
	writerAgent *writer.Agent,
	reviewerAgent *reviewer.Agent,
	gate Gate,
	logger *slog.Logger,
) (*Runner, error) {
	if cfg == nil || store == nil || loader == nil || writerAgent == nil || reviewerAgent == nil || gate == nil {
		return nil, errors.New("pipeline runner requires config, store, loader, writer, reviewer, and gate")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		loader:   loader,
		writer:   writerAgent,
		reviewer: reviewerAgent,
		gate:     gate,
		logger:   logger,
	}, nil
}

type runState struct {
	runID   string
	chapter *lineage.Chapter
	logger  *slog.Logger
}

func newRunState(logger *slog.Logger, chapter *lineage.Chapter) *runState {
	runID := uuid.NewString()
	return &runState{
		runID:   runID,
		chapter: chapter,
		logger: logger.With(
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldChapter, chapter.ChapterID),
		),
	}
}

// Start fetches a new chapter and runs it through every stage. When the
// request names a chapter that is already registered, the run resumes from
// the chapter's stored lineage instead of fetching again.
func (r *Runner) Start(ctx context.Context, req source.Request) (*lineage.Chapter, error) {
	if req.ChapterID != "" {
		if _, err := r.store.ChapterByID(ctx, req.ChapterID); err == nil {
			return r.Run(ctx, req.ChapterID)
		} else if !errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
	}

	result, err := r.loader.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	chapter, err := r.store.NewChapter(ctx, result.ChapterID, result.Title, result.Location, req.Kind)
	if err != nil {
		return nil, err
	}

	run := newRunState(r.logger, chapter)

	if chapter.Status != lineage.StatusPlanned {
		run.logger.Info("chapter already registered, resuming", logging.String("status", string(chapter.Status)))
		return r.Run(ctx, chapter.ChapterID)
	}

	if err := r.storeOriginal(ctx, run, result); err != nil {
		r.fail(ctx, run, lineage.StatusFetching.StageLabel(), err)
		return nil, err
	}

	return r.advance(ctx, run)
}

// Run resumes an existing chapter from wherever its lineage left off.
// Failed and interrupted chapters roll back to their last durable status
// before the stage loop continues.
func (r *Runner) Run(ctx context.Context, chapterID string) (*lineage.Chapter, error) {
	chapter, err := r.store.ChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	run := newRunState(r.logger, chapter)

	if rollback, ok := lineage.ProcessingRollbacks[chapter.Status]; ok {
		run.logger.Warn("chapter was interrupted mid-stage, rolling back",
			logging.String("from", string(chapter.Status)),
			logging.String("to", string(rollback)))
		chapter.Status = rollback
		if err := r.store.UpdateChapter(ctx, chapter); err != nil {
			return nil, err
		}
	}

	if chapter.Status == lineage.StatusFailed {
		resumed, err := r.deriveResumeStatus(ctx, chapterID)
		if err != nil {
			return nil, err
		}
		run.logger.Info("resuming failed chapter", logging.String("status", string(resumed)))
		chapter.Status = resumed
		chapter.ErrorMessage = ""
		if err := r.store.UpdateChapter(ctx, chapter); err != nil {
			return nil, err
		}
	}

	return r.advance(ctx, run)
}

// deriveResumeStatus maps stored lineage back to the last durable status so
// a failed chapter re-enters the pipeline without repeating finished work.
func (r *Runner) deriveResumeStatus(ctx context.Context, chapterID string) (lineage.Status, error) {
	checks := []struct {
		stage  lineage.Stage
		status lineage.Status
	}{
		{lineage.StageFinal, lineage.StatusFinal},
		{lineage.StageAIFeedback, lineage.StatusReviewed},
		{lineage.StageAIDraft, lineage.StatusDrafted},
		{lineage.StageOriginal, lineage.StatusFetched},
	}
	for _, check := range checks {
		_, err := r.store.LatestByStage(ctx, chapterID, check.stage)
		if err == nil {
			return check.status, nil
		}
		if !errors.Is(err, services.ErrNotFound) {
			return "", err
		}
	}
	return lineage.StatusPlanned, nil
}

func (r *Runner) advance(ctx context.Context, run *runState) (*lineage.Chapter, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if run.chapter.Status == lineage.StatusFinal {
			run.logger.Info("chapter is final")
			r.appendHistory(run, "final")
			return run.chapter, nil
		}

		stage, ok := r.stageForStatus(run.chapter.Status)
		if !ok {
			err := services.Wrap(services.ErrValidation, run.chapter.Status.StageLabel(), "advance",
				fmt.Sprintf("no stage accepts status %q", run.chapter.Status), nil)
			return nil, err
		}

		run.chapter.Status = stage.processing
		if err := r.store.UpdateChapter(ctx, run.chapter); err != nil {
			return nil, err
		}
		started := time.Now()
		run.logger.Info("stage started", logging.String(logging.FieldStage, stage.name))

		if err := stage.execute(ctx, run); err != nil {
			r.fail(ctx, run, stage.name, err)
			return nil, err
		}

		run.chapter.Status = stage.done
		if err := r.store.UpdateChapter(ctx, run.chapter); err != nil {
			return nil, err
		}
		run.logger.Info("stage finished",
			logging.String(logging.FieldStage, stage.name),
			logging.Duration("elapsed", time.Since(started)))
	}
}

func (r *Runner) fail(ctx context.Context, run *runState, stageName string, cause error) {
	run.logger.Error("stage failed",
		logging.String(logging.FieldStage, stageName),
		logging.Error(cause))
	run.chapter.SetFailed(cause.Error())
	if err := r.store.UpdateChapter(ctx, run.chapter); err != nil {
		run.logger.Error("failed to persist failure", logging.Error(err))
	}
	r.appendHistory(run, fmt.Sprintf("failed at %s: %s", stageName, textutil.Excerpt(cause.Error(), 160)))
}

// appendHistory records one line per run outcome in the docs directory.
func (r *Runner) appendHistory(run *runState, event string) {
	line := fmt.Sprintf("%s run=%s chapter=%s %s",
		time.Now().UTC().Format(time.RFC3339), run.runID, run.chapter.ChapterID, event)
	path := filepath.Join(r.cfg.Paths.DocsDir, "run_history.log")
	if err := fileutil.AppendLine(path, line); err != nil {
		run.logger.Warn("failed to append run history", logging.Error(err))
	}
}

func (r *Runner) artifactDir(chapterID string) string {
	return filepath.Join(r.cfg.Paths.OutputDir, textutil.SanitizeFileName(chapterID))
}

// writeArtifact mirrors a stored version to the output directory so humans
// can read the lineage without going through the store.
func (r *Runner) writeArtifact(run *runState, version *lineage.Version) error {
	name := fmt.Sprintf("%02d_%s.txt", version.Sequence, version.Stage)
	path := filepath.Join(r.artifactDir(version.ChapterID), name)
	if err := fileutil.WriteText(path, version.Text); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, run.chapter.Status.StageLabel(), "write artifact", path, err)
	}
	return nil
}

func (r *Runner) storeVersion(ctx context.Context, run *runState, version *lineage.Version) (*lineage.Version, error) {
	stored, err := r.store.Put(ctx, version)
	if err != nil {
		return nil, err
	}
	if err := r.writeArtifact(run, stored); err != nil {
		return nil, err
	}
	run.logger.Info("version stored",
		logging.String(logging.FieldStage, string(stored.Stage)),
		logging.Int(logging.FieldSeq, stored.Sequence))
	return stored, nil
}
