package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"inkwell/internal/fileutil"
	"inkwell/internal/lineage"
	"inkwell/internal/services"
	"inkwell/internal/source"
	"inkwell/internal/textutil"
)

// summaryWordLimit caps the word count of the finalization summary artifact.
const summaryWordLimit = 100

type stageFunc func(ctx context.Context, run *runState) error

type pipelineStage struct {
	name       string
	from       lineage.Status
	processing lineage.Status
	done       lineage.Status
	execute    stageFunc
}

func (r *Runner) stages() []pipelineStage {
	return []pipelineStage{
		{
			name:       "Fetched",
			from:       lineage.StatusPlanned,
			processing: lineage.StatusFetching,
			done:       lineage.StatusFetched,
			execute:    r.runFetch,
		},
		{
			name:       "Drafted",
			from:       lineage.StatusFetched,
			processing: lineage.StatusDrafting,
			done:       lineage.StatusDrafted,
			execute:    r.runDraft,
		},
		{
			name:       "Reviewed",
			from:       lineage.StatusDrafted,
			processing: lineage.StatusReviewing,
			done:       lineage.StatusReviewed,
			execute:    r.runReview,
		},
		{
			name:       "Finalized",
			from:       lineage.StatusReviewed,
			processing: lineage.StatusFinalizing,
			done:       lineage.StatusFinal,
			execute:    r.runFinalize,
		},
	}
}

func (r *Runner) stageForStatus(status lineage.Status) (pipelineStage, bool) {
	for _, stage := range r.stages() {
		if stage.from == status {
			return stage, true
		}
	}
	return pipelineStage{}, false
}

// runFetch re-fetches a planned chapter from its stored source. Fresh runs
// fetch before the chapter row exists, so this stage only runs on resume.
func (r *Runner) runFetch(ctx context.Context, run *runState) error {
	result, err := r.loader.Load(ctx, source.Request{
		Kind:      run.chapter.SourceKind,
		Location:  run.chapter.Source,
		Title:     run.chapter.Title,
		ChapterID: run.chapter.ChapterID,
	})
	if err != nil {
		return err
	}
	return r.storeOriginal(ctx, run, result)
}

func (r *Runner) storeOriginal(ctx context.Context, run *runState, result *source.Result) error {
	run.chapter.Title = result.Title
	run.chapter.Source = result.Location

	_, err := r.store.LatestByStage(ctx, run.chapter.ChapterID, lineage.StageOriginal)
	if err == nil {
		// Resumed chapter already holds its original text.
		return nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return err
	}

	_, err = r.storeVersion(ctx, run, &lineage.Version{
		ChapterID: run.chapter.ChapterID,
		Stage:     lineage.StageOriginal,
		Text:      result.Text,
		Source:    result.Location,
		Metadata: map[string]string{
			lineage.MetaRunID: run.runID,
		},
	})
	return err
}

func (r *Runner) runDraft(ctx context.Context, run *runState) error {
	original, err := r.store.LatestByStage(ctx, run.chapter.ChapterID, lineage.StageOriginal)
	if err != nil {
		return err
	}

	draft, err := r.writer.Draft(ctx, original.Text)
	if err != nil {
		return err
	}

	_, err = r.storeVersion(ctx, run, &lineage.Version{
		ChapterID: run.chapter.ChapterID,
		Stage:     lineage.StageAIDraft,
		Text:      draft.Text,
		Source:    draft.Model,
		Metadata: map[string]string{
			lineage.MetaModel:          draft.Model,
			lineage.MetaPromptTemplate: draft.Template,
			lineage.MetaRunID:          run.runID,
		},
	})
	return err
}

func (r *Runner) runReview(ctx context.Context, run *runState) error {
	original, err := r.store.LatestByStage(ctx, run.chapter.ChapterID, lineage.StageOriginal)
	if err != nil {
		return err
	}
	draft, err := r.store.LatestByStage(ctx, run.chapter.ChapterID, lineage.StageAIDraft)
	if err != nil {
		return err
	}

	feedback, err := r.reviewer.Review(ctx, original.Text, draft.Text)
	if err != nil {
		return err
	}

	_, err = r.storeVersion(ctx, run, &lineage.Version{
		ChapterID: run.chapter.ChapterID,
		Stage:     lineage.StageAIFeedback,
		Text:      feedback.Text,
		Source:    feedback.Model,
		Metadata: map[string]string{
			lineage.MetaModel:          feedback.Model,
			lineage.MetaPromptTemplate: feedback.Template,
			lineage.MetaRunID:          run.runID,
		},
	})
	return err
}

// runFinalize presents the reviewed draft to the human gate. An approval
// finalizes the draft text unchanged; an edit stores the human edit first and
// finalizes its text. Either way a short summary artifact is written next to
// the chapter outputs.
func (r *Runner) runFinalize(ctx context.Context, run *runState) error {
	const stageName = "Finalized"

	chapterID := run.chapter.ChapterID
	original, err := r.store.LatestByStage(ctx, chapterID, lineage.StageOriginal)
	if err != nil {
		return err
	}
	draft, err := r.store.LatestByStage(ctx, chapterID, lineage.StageAIDraft)
	if err != nil {
		return err
	}
	feedback, err := r.store.LatestByStage(ctx, chapterID, lineage.StageAIFeedback)
	if err != nil {
		return err
	}

	decision, err := r.gate.Decide(ctx, Review{
		Chapter:  run.chapter,
		Original: original,
		Draft:    draft,
		Feedback: feedback,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "gate", "", err)
	}

	finalText := draft.Text
	decisionLabel := "approved"
	if !decision.Approve {
		edited := strings.TrimSpace(decision.EditedText)
		if edited == "" {
			return services.Wrap(services.ErrValidation, stageName, "gate",
				"decision carried neither approval nor edited text", nil)
		}
		decisionLabel = "edited"
		humanEdit, err := r.storeVersion(ctx, run, &lineage.Version{
			ChapterID: chapterID,
			Stage:     lineage.StageHumanEdit,
			Text:      decision.EditedText,
			Source:    "human",
			Metadata: map[string]string{
				lineage.MetaDecision:   decisionLabel,
				lineage.MetaApprovedBy: decision.ApprovedBy,
				lineage.MetaRunID:      run.runID,
			},
		})
		if err != nil {
			return err
		}
		finalText = humanEdit.Text
	}

	summaryPath := filepath.Join(r.cfg.Paths.DocsDir, textutil.SanitizeFileName(chapterID)+"_summary.txt")
	if err := r.writeSummary(summaryPath, finalText); err != nil {
		return err
	}

	_, err = r.storeVersion(ctx, run, &lineage.Version{
		ChapterID: chapterID,
		Stage:     lineage.StageFinal,
		Text:      finalText,
		Source:    "human",
		Metadata: map[string]string{
			lineage.MetaDecision:    decisionLabel,
			lineage.MetaApprovedBy:  decision.ApprovedBy,
			lineage.MetaRunID:       run.runID,
			lineage.MetaSummaryPath: summaryPath,
		},
	})
	return err
}

func (r *Runner) writeSummary(path, finalText string) error {
	summary := textutil.Summary(finalText, summaryWordLimit)
	if err := fileutil.WriteText(path, summary); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "Finalized", "write summary", path, err)
	}
	return nil
}
