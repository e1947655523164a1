package main

import (
	"context"
	"fmt"
	"io"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/config"
	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/database/connect"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/filestore"
	"github.com/koustreak/clientbook/internal/filestore/minio"
	"github.com/koustreak/clientbook/internal/logger"
	"github.com/koustreak/clientbook/internal/snapshot"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

// app carries state shared by all subcommands once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "clientbook",
		Short:         "Manage client records and phone numbers",
		Long:          `clientbook stores clients and their phone numbers in PostgreSQL, MySQL or SQLite and exposes them over a CLI and an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is clientbook.yaml in the user config dir, /etc/clientbook or .)")
	pf.String("driver", "", "database driver: postgres, mysql or sqlite")
	pf.String("dsn", "", "database connection string")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: json or console")

	root.AddCommand(
		a.schemaCmd(),
		a.clientCmd(),
		a.phoneCmd(),
		a.snapshotCmd(),
		a.serveCmd(),
		a.demoCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd, a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log = logger.New(cfg.ToLogger(cmd.ErrOrStderr()))
	logger.SetGlobal(a.log)

	if cfg.File != "" {
		a.log.Debugf("using config file %s", cfg.File)
	}
	return nil
}

// openStore connects to the configured database. The caller closes db.
func (a *app) openStore(ctx context.Context) (*clients.Store, database.DB, error) {
	dbCfg := a.cfg.ToDatabase()
	db, err := connect.Open(ctx, dbCfg)
	if err != nil {
		a.log.ErrorWith("database connection failed", err, map[string]interface{}{"driver": string(dbCfg.Driver)})
		return nil, nil, err
	}
	store := clients.NewStore(db,
		clients.WithLogger(a.log),
		clients.WithQueryTimeout(dbCfg.QueryTimeout),
	)
	return store, db, nil
}

// withStore runs fn against an open store and closes it afterwards.
func (a *app) withStore(ctx context.Context, fn func(s *clients.Store) error) error {
	store, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(store)
}

func (a *app) openFiles(ctx context.Context) (filestore.Store, error) {
	fsCfg := a.cfg.ToFilestore()
	switch fsCfg.Provider {
	case filestore.ProviderMinIO, "":
		d, err := minio.New(ctx, fsCfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case filestore.ProviderMemory:
		// a memory store would vanish when this process exits
		return nil, errs.New(errs.ErrKindInvalidInput, "snapshot provider \"memory\" does not persist across CLI runs; use \"minio\"")
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported snapshot provider %q", fsCfg.Provider)
	}
}

func (a *app) snapshots(ctx context.Context, store *clients.Store) (*snapshot.Service, func(), error) {
	files, err := a.openFiles(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = files.Close() }
	return snapshot.New(files, a.cfg.ToFilestore().Bucket, store, a.log), closeFn, nil
}

// printYAML writes v to out as YAML.
func printYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clientbook %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
