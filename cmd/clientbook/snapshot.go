package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/spf13/cobra"
)

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export clients to object storage and import them back",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export",
			Short: "Write every client to a new snapshot object",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					svc, closeFn, err := a.snapshots(cmd.Context(), s)
					if err != nil {
						return err
					}
					defer closeFn()

					info, err := svc.Export(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), info.Key)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored snapshots, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, closeFn, err := a.snapshots(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeFn()

				snaps, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
				for _, o := range snaps {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format(time.RFC3339))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "import [KEY]",
			Short: "Load a snapshot (the newest when KEY is omitted) into an empty store",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := ""
				if len(args) == 1 {
					key = args[0]
				}
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					svc, closeFn, err := a.snapshots(cmd.Context(), s)
					if err != nil {
						return err
					}
					defer closeFn()

					n, err := svc.Import(cmd.Context(), key)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d clients imported\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}
