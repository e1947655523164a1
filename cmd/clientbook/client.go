package main

import (
	"fmt"
	"strconv"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/spf13/cobra"
)

func (a *app) clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Add, show, change, remove and search clients",
	}
	cmd.AddCommand(
		a.clientAddCmd(),
		a.clientGetCmd(),
		a.clientUpdateCmd(),
		a.clientDeleteCmd(),
		a.clientFindCmd(),
		a.clientListCmd(),
	)
	return cmd
}

func (a *app) clientAddCmd() *cobra.Command {
	var (
		name, surname, email string
		phones               []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client with optional phone numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				id, err := s.AddClient(cmd.Context(), name, surname, email, phones)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "first name")
	f.StringVar(&surname, "surname", "", "last name")
	f.StringVar(&email, "email", "", "email address")
	f.StringSliceVar(&phones, "phone", nil, "phone number (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("surname")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) clientGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a client and its phones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				c, err := s.GetClient(cmd.Context(), id)
				if err != nil {
					return err
				}
				phones, err := s.GetPhones(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), clients.ClientRecord{Client: *c, Phones: phones})
			})
		},
	}
}

func (a *app) clientUpdateCmd() *cobra.Command {
	var (
		name, surname, email string
		phones               []string
		clearPhones          bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change client fields; --phone replaces the whole phone list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var upd clients.ClientUpdate
			f := cmd.Flags()
			if f.Changed("name") {
				upd.Name = &name
			}
			if f.Changed("surname") {
				upd.Surname = &surname
			}
			if f.Changed("email") {
				upd.Email = &email
			}
			switch {
			case clearPhones:
				upd.Phones = []string{}
			case f.Changed("phone"):
				upd.Phones = phones
			}

			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				if err := s.UpdateClient(cmd.Context(), id, upd); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "client %d updated\n", id)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new first name")
	f.StringVar(&surname, "surname", "", "new last name")
	f.StringVar(&email, "email", "", "new email address")
	f.StringSliceVar(&phones, "phone", nil, "replacement phone number (repeatable)")
	f.BoolVar(&clearPhones, "clear-phones", false, "remove every phone number")
	cmd.MarkFlagsMutuallyExclusive("phone", "clear-phones")
	return cmd
}

func (a *app) clientDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a client and all its phones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				if err := s.DeleteClient(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "client %d deleted\n", id)
				return nil
			})
		},
	}
}

func (a *app) clientFindCmd() *cobra.Command {
	var (
		c    clients.Criteria
		mode string
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the id of the first client matching the criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != "all" && mode != "fallback" {
				return errs.Newf(errs.ErrKindInvalidInput, "unknown match mode %q", mode)
			}
			c.Mode = clients.ParseMatchMode(mode)
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				id, err := s.FindClient(cmd.Context(), c)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "first name")
	f.StringVar(&c.Surname, "surname", "", "last name")
	f.StringVar(&c.Email, "email", "", "email address")
	f.StringVar(&c.Phone, "phone", "", "phone number")
	f.StringVar(&mode, "mode", "all", `"all" matches every criterion; "fallback" tries the phone only when the rest matched nothing`)
	return cmd
}

func (a *app) clientListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every client with its phones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				records, err := s.ListClients(cmd.Context())
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), records)
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Newf(errs.ErrKindInvalidInput, "invalid client id %q", raw)
	}
	return id, nil
}
