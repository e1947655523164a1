package main

import (
	"fmt"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/spf13/cobra"
)

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create, drop or inspect the client tables",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create the client and phone tables if missing",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					if err := s.CreateSchema(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "schema created")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop the phone and client tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					if err := s.DropSchema(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "schema dropped")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether both tables exist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					ok, err := s.SchemaExists(cmd.Context())
					if err != nil {
						return err
					}
					if ok {
						fmt.Fprintln(cmd.OutOrStdout(), "present")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "missing")
					}
					return nil
				})
			},
		},
	)
	return cmd
}
