package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erazemk/soporte/internal/resource"
)

func loginCmd(e *env) *cobra.Command {
	var email, password string

	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.connect(ctx); err != nil {
				return err
			}

			if email == "" {
				email = e.sess.RememberedEmail()
			}
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
				p, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = p
			}

			user, token, err := resource.NewAuth(e.api).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := e.sess.Login(ctx, user, token); err != nil {
				return err
			}
			if err := e.sess.RememberEmail(ctx, email); err != nil {
				return err
			}

			slog.Info("signed in", "email", user.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s\n", user.DisplayName())
			return nil
		},
	}
	c.Flags().StringVarP(&email, "email", "e", "", "Account email (defaults to the last one used)")
	c.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when empty)")
	return c
}

// readPassword reads one line from in. A terminal gets no echo.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.connect(ctx); err != nil {
				return err
			}
			if _, ok := e.sess.Token(); ok {
				// The local session is cleared even when the server is unreachable.
				if err := resource.NewAuth(e.api).Logout(ctx); err != nil {
					slog.Warn("server logout failed", "error", err)
				}
			}
			if err := e.sess.Logout(ctx); err != nil {
				return err
			}
			if cache := e.pageCache(); cache != nil {
				if err := cache.Clear(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

func whoamiCmd(e *env) *cobra.Command {
	var local bool

	c := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.authed(ctx); err != nil {
				return err
			}
			if local {
				return printJSON(cmd.OutOrStdout(), e.sess.User())
			}
			me, err := resource.NewAuth(e.api).Me(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), me)
		},
	}
	c.Flags().BoolVar(&local, "local", false, "Print the cached profile without calling the server")
	return c
}
