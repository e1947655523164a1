package main

import (
	"fmt"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/spf13/cobra"
)

func (a *app) phoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Manage a client's phone numbers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add CLIENT_ID NUMBER",
			Short: "Attach a phone number to a client",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					phoneID, err := s.AddPhone(cmd.Context(), id, args[1])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), phoneID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete CLIENT_ID NUMBER",
			Short: "Remove a phone number from a client",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					if err := s.DeletePhone(cmd.Context(), id, args[1]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "phone %s removed from client %d\n", args[1], id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list CLIENT_ID",
			Short: "List a client's phone numbers in the order they were added",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd.Context(), func(s *clients.Store) error {
					phones, err := s.GetPhones(cmd.Context(), id)
					if err != nil {
						return err
					}
					for _, p := range phones {
						fmt.Fprintln(cmd.OutOrStdout(), p)
					}
					return nil
				})
			},
		},
	)
	return cmd
}
