package cli

import (
	"encoding/json"

	"passage-server/internal/service"

	"github.com/spf13/cobra"
)

type resolvedPassage struct {
	ID            string `json:"id"`
	PassageNumber *int   `json:"passage_number,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Name          string `json:"name"`
}

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var storyID string
	cmd := &cobra.Command{
		Use:   "resolve REF",
		Short: "Resolve a #NNNNNN reference or passage name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			nav := service.NewNavigationService(s.backend.Repositories, cliCache, s.logger)
			p, err := nav.ResolveReference(cmd.Context(), storyID, args[0])
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(resolvedPassage{
				ID:            p.ID,
				PassageNumber: p.PassageNumber,
				Reference:     p.Reference(),
				Name:          p.Name,
			})
		},
	}
	cmd.Flags().StringVar(&storyID, "story", "", "Story id")
	_ = cmd.MarkFlagRequired("story")
	return cmd
}
