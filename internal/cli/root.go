// Package cli wires the soporte command tree: session commands, record
// management for every back-office collection, ticket search and the
// terminal UI.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/config"
	"github.com/erazemk/soporte/internal/db"
	"github.com/erazemk/soporte/internal/logging"
	"github.com/erazemk/soporte/internal/session"
	"github.com/erazemk/soporte/internal/store"
)

// Version is set at build time with -ldflags "-X github.com/erazemk/soporte/internal/cli.Version=v1.0.0".
var Version = "dev"

// env is the state shared by one command invocation.
type env struct {
	cfgFile string
	cfg     config.Config

	closeLog func()
	db       *sql.DB
	sess     *session.Store
	api      *client.Client
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "soporte",
		Short:         "Back-office client for support tickets and asset transfers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(e.cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg

			// Records go to stderr so command output stays machine readable.
			// The terminal UI owns the screen and only logs to file.
			closeLog, err := logging.Setup(logging.Options{
				Level:  cfg.Log.Level,
				File:   cfg.Log.File,
				Quiet:  cmd.Name() == "tui",
				Stdout: cmd.ErrOrStderr(),
				Stderr: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			e.closeLog = closeLog
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			e.close()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.cfgFile, "config", "", "Path to config file (yaml/json/toml)")
	pf.String("base-url", "", "API base URL")
	pf.Duration("timeout", 0, "Request timeout (0 disables)")
	pf.String("data", "", "Path to the local state database")
	pf.String("log-level", "", "Log level (debug/info/warn/error)")
	pf.String("log-file", "", "Also write logs to this file")

	root.AddCommand(
		loginCmd(e),
		logoutCmd(e),
		whoamiCmd(e),
		usersCmd(e),
		productsCmd(e),
		transfersCmd(e),
		articlesCmd(e),
		supportsCmd(e),
		clientsCmd(e),
		tuiCmd(e),
		configCmd(e),
		versionCmd(),
	)
	return root
}

// Execute runs the command tree with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// connect opens the local database, loads the session and builds the API
// client. Commands that talk to the backend call it first.
func (e *env) connect(ctx context.Context) error {
	if e.api != nil {
		return nil
	}

	conn, err := db.Open(e.cfg.Data.Path)
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(conn); err != nil {
		conn.Close()
		return fmt.Errorf("ensuring schema: %w", err)
	}
	e.db = conn

	e.sess = session.New(&store.Settings{DB: conn})
	if err := e.sess.Load(ctx); err != nil {
		return err
	}
	e.api = client.New(e.cfg.API.BaseURL, e.sess, e.cfg.API.Timeout)
	return nil
}

// authed is connect plus a check that a session exists.
func (e *env) authed(ctx context.Context) error {
	if err := e.connect(ctx); err != nil {
		return err
	}
	if _, ok := e.sess.Token(); !ok {
		return fmt.Errorf("%w: run \"soporte login\" first", session.ErrNotAuthenticated)
	}
	return nil
}

func (e *env) pageCache() *store.PageCache {
	if !e.cfg.List.PageCache || e.db == nil {
		return nil
	}
	return &store.PageCache{DB: e.db}
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
	if e.closeLog != nil {
		e.closeLog()
		e.closeLog = nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of soporte",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func configCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Config operations",
	}
	c.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the current loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), e.cfg)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config directory",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultDir())
		},
	})
	return c
}

// stderrIsTerminal reports whether progress output would reach a person.
func stderrIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
