package cli

import (
	"github.com/spf13/cobra"

	"github.com/erazemk/soporte/internal/tui"
)

func tuiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			deps := tui.Deps{
				Session:  e.sess,
				API:      e.api,
				Debounce: e.cfg.Search.Debounce,
			}
			if cache := e.pageCache(); cache != nil {
				deps.Cache = cache
			}
			return tui.Run(cmd.Context(), deps)
		},
	}
}
