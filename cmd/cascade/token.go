package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/security"
)

// newTokenCmd mints a delete token from the API's own configuration, so it
// is run where the API secret is available.
func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for photo deletion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadApp()
			if err != nil {
				return err
			}
			if cfg.Security.AdminSecret == "" {
				return errors.New("security.adminsecret is not set; deletes are unauthenticated")
			}
			if ttl <= 0 {
				ttl = cfg.Security.AdminTokenTTL
			}

			token, err := security.GenerateAdminToken(cfg.Security.AdminSecret, subject, []string{security.ScopePhotosDelete}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "owner", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to security.admintokenttl)")
	return cmd
}
