package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/lineage"
	"inkwell/internal/versionstore"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters",
		Short: "List registered chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *versionstore.Store) error {
				chapters, err := store.ListChapters(cmd.Context())
				if err != nil {
					return err
				}
				if len(chapters) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No chapters registered")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), chapterTable(chapters))
				return nil
			})
		},
	}
}

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	var stageFilter string

	cmd := &cobra.Command{
		Use:   "versions <chapter-id>",
		Short: "List a chapter's stored versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *versionstore.Store) error {
				chapterID := strings.TrimSpace(args[0])
				if _, err := store.ChapterByID(cmd.Context(), chapterID); err != nil {
					return err
				}

				var (
					versions []*lineage.Version
					err      error
				)
				if stageFilter != "" {
					stage, ok := lineage.ParseStage(stageFilter)
					if !ok {
						return fmt.Errorf("unknown stage %q (known: %s)", stageFilter, stageNames())
					}
					versions, err = store.VersionsByStage(cmd.Context(), chapterID, stage)
				} else {
					versions, err = store.Versions(cmd.Context(), chapterID)
				}
				if err != nil {
					return err
				}
				if len(versions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No versions stored")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), versionTable(versions))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stageFilter, "stage", "", "Only show versions for one stage")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var sequence int
	var stageName string

	cmd := &cobra.Command{
		Use:   "show <chapter-id>",
		Short: "Print the text of a stored version",
		Long: "Prints the newest final version by default. Use --seq for an exact " +
			"sequence number or --stage for the newest version of a stage.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *versionstore.Store) error {
				chapterID := strings.TrimSpace(args[0])

				var (
					version *lineage.Version
					err     error
				)
				switch {
				case sequence > 0:
					version, err = store.VersionBySequence(cmd.Context(), chapterID, sequence)
				case stageName != "":
					stage, ok := lineage.ParseStage(stageName)
					if !ok {
						return fmt.Errorf("unknown stage %q (known: %s)", stageName, stageNames())
					}
					version, err = store.LatestByStage(cmd.Context(), chapterID, stage)
				default:
					version, err = store.LatestByStage(cmd.Context(), chapterID, lineage.StageFinal)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Chapter %s, version %d (%s), created %s\n\n",
					version.ChapterID, version.Sequence, version.Stage, formatTimestamp(version.CreatedAt))
				fmt.Fprintln(out, version.Text)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&sequence, "seq", 0, "Exact sequence number to show")
	cmd.Flags().StringVar(&stageName, "stage", "", "Show the newest version of this stage")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the version store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *versionstore.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Chapters: %d\n", stats.Total)
				for _, status := range lineage.AllStatuses() {
					if count := stats.ByStatus[status]; count > 0 {
						fmt.Fprintf(out, "  %-12s %d\n", status, count)
					}
				}
				fmt.Fprintf(out, "Versions: %d (indexed: %d)\n", stats.Versions, stats.Indexed)
				fmt.Fprintf(out, "Store: %s\n", store.Path())
				return nil
			})
		},
	}
}

func stageNames() string {
	stages := lineage.AllStages()
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = string(stage)
	}
	return strings.Join(names, ", ")
}
