package main

import (
	"github.com/koustreak/clientbook/internal/server"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := store.CreateSchema(ctx); err != nil {
					return err
				}
			}

			srv := server.New(server.Config{
				Addr:            a.cfg.Server.Addr,
				RequestTimeout:  a.cfg.Server.RequestTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
			}, store, db, a.log)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&migrate, "create-schema", false, "create the tables before serving")
	return cmd
}
