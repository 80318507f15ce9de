package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/services"
)

var (
	indexFrom    string
	indexTo      string
	indexRebuild bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the raw data files into the sqlite database",
	Long: `Replay the raw data files into the sqlite activity index used by stats,
reports over several days and title search. Activities already indexed
are skipped unless --rebuild is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.index == nil {
			return errors.New("the activity index is disabled, set storage.index: true in the config")
		}

		var from, to domain.Date
		var err error
		if indexFrom != "" {
			if from, err = domain.ParseDate(indexFrom); err != nil {
				return err
			}
		}
		if indexTo != "" {
			if to, err = domain.ParseDate(indexTo); err != nil {
				return err
			}
		}

		ctx := context.Background()
		var result *services.IndexResult
		if indexRebuild {
			result, err = app.index.Rebuild(ctx, from, to)
		} else {
			result, err = app.index.Reindex(ctx, from, to)
		}
		if err != nil {
			return fmt.Errorf("failed to index: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d days: %d activities added, %d already present\n",
			result.Days, result.Added, result.Skipped)
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexFrom, "from", "", "First day to index (YYYY-MM-DD)")
	indexCmd.Flags().StringVar(&indexTo, "to", "", "Last day to index (YYYY-MM-DD)")
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Drop indexed days before indexing them again")
	rootCmd.AddCommand(indexCmd)
}
