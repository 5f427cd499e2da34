package cli

import (
	"fmt"

	"passage-server/internal/storage"

	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply Graph Store migrations",
		Long:  "Apply migrations for the configured driver. With --to the schema moves to that exact version, up or down.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			log, err := flags.newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			var version *uint
			if cmd.Flags().Changed("to") {
				if to < 0 {
					return fmt.Errorf("--to must not be negative")
				}
				v := uint(to)
				version = &v
			}
			if err := storage.MigrateTo(cfg, version, log); err != nil {
				return err
			}
			if version != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store to version %d\n", cfg.StoreDriver, *version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store to latest\n", cfg.StoreDriver)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "Target schema version")
	return cmd
}
