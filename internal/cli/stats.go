package cli

import (
	"encoding/json"

	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/spf13/cobra"
)

type statsReport struct {
	Overview *models.StatsOverview     `json:"overview,omitempty"`
	Passages []models.PassageVisitStat `json:"passages,omitempty"`
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	var storyID, passageID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print visit statistics",
		Long:  "Without flags prints site totals and per-passage visit counts. --story narrows the counts to one story, --passage prints a single passage's count.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			analytics := service.NewAnalyticsService(s.backend.Repositories)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if passageID != "" {
				count, err := analytics.PassageVisitCount(cmd.Context(), passageID)
				if err != nil {
					return err
				}
				return enc.Encode(models.PassageVisitStat{PassageID: passageID, VisitCount: count})
			}

			var report statsReport
			if storyID == "" {
				if report.Overview, err = analytics.Overview(cmd.Context()); err != nil {
					return err
				}
			}
			var story *string
			if storyID != "" {
				story = &storyID
			}
			if report.Passages, err = analytics.PassageStats(cmd.Context(), story); err != nil {
				return err
			}
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&storyID, "story", "", "Only count visits within this story")
	cmd.Flags().StringVar(&passageID, "passage", "", "Print the visit count of one passage")
	cmd.MarkFlagsMutuallyExclusive("story", "passage")
	return cmd
}
