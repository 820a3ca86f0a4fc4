package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/resource"
)

// supportEditor fills a ticket draft. Detail fields are addressed by their
// wire names.
type supportEditor struct {
	*form.SupportDraft
}

func (s supportEditor) apply(name, value string) error {
	return s.Set(name, value)
}

func (supportEditor) pick(string) error {
	return errors.New("tickets take no file")
}

func supportsCmd(e *env) *cobra.Command {
	c := recordCmd(e, kind[model.Support]{
		use:     "supports",
		aliases: []string{"soportes", "tickets"},
		short:   "Manage support tickets",
		service: func(e *env) (*resource.Service[model.Support], error) { return resource.Supports(e.api), nil },
		editor:  func(s *model.Support) editor { return supportEditor{form.NewSupport(s)} },
	})

	c.AddCommand(&cobra.Command{
		Use:   "search QUERY",
		Short: "Search tickets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.authed(cmd.Context()); err != nil {
				return err
			}
			found, err := resource.NewTickets(e.api).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if found == nil {
				found = []model.Support{}
			}
			return printJSON(cmd.OutOrStdout(), found)
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "options",
		Short: "Print the lookup lists offered by the ticket form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.authed(cmd.Context()); err != nil {
				return err
			}
			opts, err := resource.NewTickets(e.api).FetchOptions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), opts)
		},
	})
	return c
}

func clientsCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"clientes"},
		Short:   "Look up the clients tickets are raised for",
	}
	c.AddCommand(&cobra.Command{
		Use:   "search QUERY",
		Short: "Search clients by name or document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.authed(cmd.Context()); err != nil {
				return err
			}
			found, err := resource.NewTickets(e.api).SearchClients(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if found == nil {
				found = []model.Client{}
			}
			return printJSON(cmd.OutOrStdout(), found)
		},
	})
	return c
}
