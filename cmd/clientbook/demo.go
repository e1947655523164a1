package main

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/spf13/cobra"
)

func (a *app) demoCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted session against a fresh schema",
		Long: `demo creates the schema, adds three clients, searches, edits and deletes
them, checking each result along the way. The schema is dropped at the end
unless --keep is given. Point it at a scratch database, e.g.
  clientbook demo --driver sqlite --dsn :memory:`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s *clients.Store) error {
				return runDemo(cmd.Context(), s, cmd.OutOrStdout(), keep)
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the tables and data afterwards")
	return cmd
}

func runDemo(ctx context.Context, s *clients.Store, out io.Writer, keep bool) error {
	step := func(format string, args ...interface{}) {
		fmt.Fprintf(out, "- "+format+"\n", args...)
	}
	expect := func(what string, got, want interface{}) error {
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("%s: got %v, want %v", what, got, want)
		}
		return nil
	}

	if err := s.CreateSchema(ctx); err != nil {
		return err
	}
	step("schema created")

	seed := []struct {
		name, surname, email string
		phones               []string
	}{
		{"Pavel", "Lomazov", "pavel.lomazov@mail.ru", []string{}},
		{"Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"}},
		{"Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"}},
	}
	for _, c := range seed {
		id, err := s.AddClient(ctx, c.name, c.surname, c.email, c.phones)
		if err != nil {
			return err
		}
		step("added %s %s as %d", c.name, c.surname, id)
	}

	pavel, err := s.FindClient(ctx, clients.Criteria{Name: "Pavel"})
	if err != nil {
		return err
	}
	stephen, err := s.FindClient(ctx, clients.Criteria{Surname: "Hawking"})
	if err != nil {
		return err
	}
	elonByPhone, err := s.FindClient(ctx, clients.Criteria{Phone: "5555551234"})
	if err != nil {
		return err
	}
	step("found Pavel=%d Stephen=%d Elon (by phone)=%d", pavel, stephen, elonByPhone)

	if _, err := s.AddPhone(ctx, pavel, "89338779256"); err != nil {
		return err
	}
	phones, err := s.GetPhones(ctx, pavel)
	if err != nil {
		return err
	}
	if err := expect("phones after add", phones, []string{"89338779256"}); err != nil {
		return err
	}
	step("added phone to %d: %v", pavel, phones)

	if err := s.DeletePhone(ctx, pavel, "89338779256"); err != nil {
		return err
	}
	step("removed phone from %d", pavel)

	if err := s.DeleteClient(ctx, 99); !errs.IsNotFound(err) {
		return fmt.Errorf("deleting unknown client: got %v, want not found", err)
	}
	step("deleting unknown client 99 refused")

	if err := s.DeleteClient(ctx, pavel); err != nil {
		return err
	}
	if _, err := s.FindClient(ctx, clients.Criteria{Name: "Pavel"}); !errs.IsNotFound(err) {
		return fmt.Errorf("find after delete: got %v, want not found", err)
	}
	step("deleted client %d", pavel)

	name, surname, email := "Anonymous", "Hawkinggg", "stephen.hawkinggg@gmail.com"
	if err := s.UpdateClient(ctx, stephen, clients.ClientUpdate{
		Name:    &name,
		Surname: &surname,
		Email:   &email,
		Phones:  []string{"123456789", "987654321"},
	}); err != nil {
		return err
	}
	c, err := s.GetClient(ctx, stephen)
	if err != nil {
		return err
	}
	if err := expect("updated client", *c, clients.Client{ID: stephen, Name: name, Surname: surname, Email: email}); err != nil {
		return err
	}
	phones, err = s.GetPhones(ctx, stephen)
	if err != nil {
		return err
	}
	if err := expect("updated phones", phones, []string{"123456789", "987654321"}); err != nil {
		return err
	}
	step("updated client %d: %s %s <%s> %v", stephen, c.Name, c.Surname, c.Email, phones)

	if keep {
		return nil
	}
	if err := s.DropSchema(ctx); err != nil {
		return err
	}
	step("schema dropped")
	return nil
}
