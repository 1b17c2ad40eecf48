package main

import (
	"fmt"

	"github.com/dvloznov/receipts-web/internal/backend"
	"github.com/dvloznov/receipts-web/internal/config"
	"github.com/dvloznov/receipts-web/internal/logger"
	"github.com/dvloznov/receipts-web/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every command needs. It is filled in by the root
// command's PersistentPreRunE once flags are parsed.
type app struct {
	cfg   config.Client
	log   zerolog.Logger
	store *session.FileStore
	api   *backend.Client
}

func newApp() *app {
	config.LoadDotEnv()
	return &app{cfg: config.LoadClient()}
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "receipts",
		Short:         "Manage receipts from the command line",
		Long:          `receipts talks to the receipts backend: upload receipt photos, review parsed receipts, and export transactions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfg.APIBaseURL, "api-url", a.cfg.APIBaseURL, "backend API base URL (or set API_BASE_URL env)")
	cmd.PersistentFlags().StringVar(&a.cfg.SessionFile, "session-file", a.cfg.SessionFile, "where the login session is kept (or set SESSION_FILE env)")
	cmd.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&a.cfg.HTTPTimeout, "timeout", a.cfg.HTTPTimeout, "HTTP timeout, 0 for none (or set HTTP_TIMEOUT env)")

	cmd.AddCommand(loginCmd(a))
	cmd.AddCommand(logoutCmd(a))
	cmd.AddCommand(dashboardCmd(a))
	cmd.AddCommand(receiptsCmd(a))
	cmd.AddCommand(transactionsCmd(a))
	cmd.AddCommand(uploadCmd(a))
	cmd.AddCommand(profileCmd(a))

	return cmd
}

func (a *app) init() error {
	if a.cfg.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	a.log = logger.NewWithLevel(a.cfg.LogLevel)
	a.store = session.NewFileStore(config.ExpandPath(a.cfg.SessionFile))
	a.api = backend.New(a.cfg.APIBaseURL, a.cfg.HTTPTimeout, a.store)
	return nil
}
