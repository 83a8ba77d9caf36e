package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/log"
	"github.com/Jce-C/megregalo/internal/photoclient"
	"github.com/Jce-C/megregalo/internal/photoclient/localstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the config is loaded.
type app struct {
	cfg    *config.CascadeConfig
	logger zerolog.Logger
	local  *localstore.Store
	client *photoclient.Client
}

func (a *app) close() {
	if a.local != nil {
		_ = a.local.Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cascade",
		Short:         "Falling love notes, hearts and photos",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "token" {
				return nil
			}
			cfg, err := config.LoadCascade()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = log.NewWithLevel(cmd.ErrOrStderr(), cfg.Environment, cfg.Logging.Level)

			local, err := localstore.Open(cfg.LocalStorePath)
			if err != nil {
				a.logger.Warn().Err(err).Str("path", cfg.LocalStorePath).Msg("local backup unavailable")
			} else {
				a.local = local
			}

			var backup photoclient.LocalStore
			if a.local != nil {
				backup = a.local
			}
			a.client = photoclient.New(photoclient.Config{
				BaseURL:    cfg.APIBaseURL,
				Timeout:    cfg.RequestTimeout,
				AdminToken: cfg.AdminToken,
			}, backup, a.logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newUploadCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newTokenCmd(),
	)
	return root
}
