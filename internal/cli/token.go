package cli

import (
	"errors"
	"fmt"
	"time"

	"passage-server/internal/authutils"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		userID string
		admin  bool
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with JWT_SECRET",
		Long:  "Mint an HS256 access token for scripts and local testing. --admin adds the ROLE_ADMIN role required by /api/admin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("--user: %w", err)
				}
			}
			roles := []string{models.RoleUser}
			if admin {
				roles = append(roles, models.RoleAdmin)
			}

			token, err := authutils.SignToken(cfg.JWTSecret, authutils.NewClaims(id, ttl, roles...))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (default: random)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
