package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/lineage"
	"inkwell/internal/pipeline"
	"inkwell/internal/source"
	"inkwell/internal/versionstore"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		fromFile  bool
		title     string
		chapterID string
	)

	cmd := &cobra.Command{
		Use:   "run <url|path>",
		Short: "Fetch a chapter and run it through the pipeline",
		Long: "Fetches chapter text from a web page (or a local file with --file), " +
			"rewrites it with the AI writer, collects AI reviewer feedback, and asks " +
			"for human approval before storing the final version.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(cfg *config.Config, store *versionstore.Store, runner *pipeline.Runner) error {
				kind := lineage.SourceWeb
				if fromFile {
					kind = lineage.SourceFile
				}
				chapter, err := runner.Start(cmd.Context(), source.Request{
					Kind:      kind,
					Location:  strings.TrimSpace(args[0]),
					Title:     title,
					ChapterID: chapterID,
				})
				if err != nil {
					return err
				}
				return printChapterOutcome(cmd, store, chapter)
			})
		},
	}

	cmd.Flags().BoolVar(&fromFile, "file", false, "Treat the argument as a local file path")
	cmd.Flags().StringVar(&title, "title", "", "Override the chapter title")
	cmd.Flags().StringVar(&chapterID, "id", "", "Chapter identifier (derived from the title when empty)")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <chapter-id>",
		Short: "Resume a failed or interrupted chapter from its stored lineage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(cfg *config.Config, store *versionstore.Store, runner *pipeline.Runner) error {
				chapter, err := runner.Run(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return printChapterOutcome(cmd, store, chapter)
			})
		},
	}
}

func newRedraftCommand(ctx *commandContext) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "redraft <chapter-id>",
		Short: "Request a fresh AI draft for a chapter that is not final yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(cfg *config.Config, store *versionstore.Store, runner *pipeline.Runner) error {
				chapterID := strings.TrimSpace(args[0])
				if err := store.MarkForRedraft(cmd.Context(), chapterID); err != nil {
					return err
				}
				if !runNow {
					fmt.Fprintf(cmd.OutOrStdout(), "Chapter %s queued for redraft; run 'inkwell resume %s' to continue\n", chapterID, chapterID)
					return nil
				}
				chapter, err := runner.Run(cmd.Context(), chapterID)
				if err != nil {
					return err
				}
				return printChapterOutcome(cmd, store, chapter)
			})
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "Run the pipeline immediately after marking the redraft")
	return cmd
}

func printChapterOutcome(cmd *cobra.Command, store *versionstore.Store, chapter *lineage.Chapter) error {
	out := cmd.OutOrStdout()
	versions, err := store.Versions(cmd.Context(), chapter.ChapterID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nChapter %s (%s): %s, %d stored versions\n",
		chapter.ChapterID, chapter.Title, chapter.Status, len(versions))
	return nil
}
