package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/domain"
)

var appsIndexed bool

var appsCmd = &cobra.Command{
	Use:   "apps [query]",
	Short: "List the configured application rules",
	Long: `List the detailed and distracting application rules, fuzzy filtered by
an optional query. With --indexed the titles found in the activity index
are searched instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		out := cmd.OutOrStdout()

		if appsIndexed {
			if app.storage == nil {
				return fmt.Errorf("the activity index is disabled, set storage.index: true in the config")
			}
			titles, err := app.storage.Activities().SearchTitles(context.Background(), query)
			if err != nil {
				return err
			}
			for _, title := range titles {
				fmt.Fprintln(out, title)
			}
			return nil
		}

		infos := filterInfos(app.matcher.All(), query)
		if len(infos) == 0 {
			fmt.Fprintln(out, "No matching applications.")
			return nil
		}
		for _, info := range infos {
			kind := "detailed"
			if info.IsDistracting {
				kind = "distracting"
			}
			fmt.Fprintf(out, "%-24s %-12s wm_name=%q tab=%q\n", info.Title, kind, info.WmName.String(), info.Tab.String())
		}
		return nil
	},
}

func init() {
	appsCmd.Flags().BoolVar(&appsIndexed, "indexed", false, "Search titles stored in the activity index")
	rootCmd.AddCommand(appsCmd)
}

type infoTitles []*domain.ApplicationInfo

func (t infoTitles) String(i int) string { return t[i].Title }
func (t infoTitles) Len() int            { return len(t) }

// filterInfos returns rules whose title fuzzy-matches query, best first.
func filterInfos(infos []*domain.ApplicationInfo, query string) []*domain.ApplicationInfo {
	if strings.TrimSpace(query) == "" {
		return infos
	}
	matches := fuzzy.FindFrom(query, infoTitles(infos))
	result := make([]*domain.ApplicationInfo, 0, len(matches))
	for _, m := range matches {
		result = append(result, infos[m.Index])
	}
	return result
}
