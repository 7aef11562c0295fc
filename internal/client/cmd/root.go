package cmd

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/willr196/vergo-db-sub002/internal/client/api"
	"github.com/willr196/vergo-db-sub002/internal/client/biometric"
	"github.com/willr196/vergo-db-sub002/internal/client/config"
	"github.com/willr196/vergo-db-sub002/internal/client/netmon"
	"github.com/willr196/vergo-db-sub002/internal/client/offline"
	"github.com/willr196/vergo-db-sub002/internal/client/session"
	"github.com/willr196/vergo-db-sub002/internal/client/store"
)

// app holds the wired session context for one CLI invocation. It replaces
// any module-level token state: created at startup, torn down on exit.
type app struct {
	serverFlag  string
	dataDirFlag string

	cfg     config.Config
	log     zerolog.Logger
	creds   store.Store
	offline *offline.Store
	api     *api.Client
	session *session.Manager
	monitor *netmon.Monitor
}

func NewRootCmd(version, buildDate string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "vergo",
		Short:         "VERGO staffing marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.serverFlag, "server", "", "Server base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.dataDirFlag, "data-dir", "", "Local data directory (overrides config)")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAuthCmd(a))
	root.AddCommand(newJobsCmd(a))
	root.AddCommand(newApplicationsCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newSyncCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.serverFlag != "" {
		cfg.ServerURL = a.serverFlag
	}
	if a.dataDirFlag != "" {
		cfg.DataDir = a.dataDirFlag
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	creds, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	a.creds = creds

	off, err := offline.Open("file:" + filepath.Join(cfg.DataDir, "offline.db"))
	if err != nil {
		return err
	}
	a.offline = off

	a.api = api.New(cfg.ServerURL, a.creds, a.log)
	a.session = session.NewManager(a.api, a.creds, biometric.NewTerminal(), a.log)
	a.session.IdleTimeout = cfg.IdleTimeout

	a.monitor = netmon.New(netmon.DialProbe(cfg.ServerURL), cfg.ProbeInterval, a.log)
	a.monitor.Observe(netmon.DialProbe(cfg.ServerURL)(cmd.Context()))
	return nil
}

func (a *app) close() {
	if a.offline != nil {
		_ = a.offline.Close()
	}
}
