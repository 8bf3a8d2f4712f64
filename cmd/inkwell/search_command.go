package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/versionstore"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find stored versions similar to a text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *versionstore.Store) error {
				query := strings.Join(args, " ")
				matches, err := store.Search(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), matchTable(matches))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "k", versionstore.DefaultSearchLimit, "Maximum number of matches")
	return cmd
}
