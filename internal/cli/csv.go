package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/spf13/cobra"
)

const (
	kindPassages = "passages"
	kindLinks    = "links"
)

func csvKindArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if args[0] != kindPassages && args[0] != kindLinks {
		return fmt.Errorf("unknown kind %q (expected %s or %s)", args[0], kindPassages, kindLinks)
	}
	return nil
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var storyID, out string
	cmd := &cobra.Command{
		Use:       "export passages|links",
		Short:     "Export a story's passages or links as CSV",
		Args:      csvKindArg,
		ValidArgs: []string{kindPassages, kindLinks},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			csvService := service.NewCSVService(s.backend.Repositories, cliCache, s.logger)
			export := csvService.ExportPassages
			if args[0] == kindLinks {
				export = csvService.ExportLinks
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return export(cmd.Context(), storyID, w)
		},
	}
	cmd.Flags().StringVar(&storyID, "story", "", "Story id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("story")
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var storyID, file string
	cmd := &cobra.Command{
		Use:       "import passages|links",
		Short:     "Import passages or links from CSV",
		Long:      "Import upserts rows by id. Rejected rows are listed in the printed result and do not stop the import.",
		Args:      csvKindArg,
		ValidArgs: []string{kindPassages, kindLinks},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			s, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			csvService := service.NewCSVService(s.backend.Repositories, cliCache, s.logger)
			result, err := runImport(cmd.Context(), csvService, args[0], storyID, f)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&storyID, "story", "", "Story id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("story")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, csvService interfaces.CSVService, kind, storyID string, r io.Reader) (*models.ImportResult, error) {
	if kind == kindLinks {
		return csvService.ImportLinks(ctx, storyID, r)
	}
	return csvService.ImportPassages(ctx, storyID, r)
}
