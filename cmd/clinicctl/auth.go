package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				in := bufio.NewReader(c.in)
				if email == "" {
					if p := c.profiles.Find(c.settings.ServerURL); p != nil {
						email = p.LastEmail
					}
				}
				if email == "" {
					_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
					line, err := in.ReadString('\n')
					if err != nil && !errors.Is(err, io.EOF) {
						return fmt.Errorf("read email: %w", err)
					}
					email = strings.TrimSpace(line)
				}
				password, err := readPassword(cmd.ErrOrStderr(), c.in, in, passwordStdin)
				if err != nil {
					return err
				}

				rec, err := c.engine.Login(ctx, email, password)
				if err != nil {
					return errors.New(client.LoginMessage(err))
				}
				c.rememberServer(strings.TrimSpace(email), opts.server != "")
				_, _ = fmt.Fprintf(c.out, "%s %s\n", okStyle.Render("Signed in."), view.Welcome(rec.UserName, rec.Role))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (default: last used for this server)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// readPassword prompts without echo on a terminal, otherwise reads one line.
func readPassword(prompt io.Writer, raw io.Reader, in *bufio.Reader, fromStdin bool) (string, error) {
	if f, ok := raw.(*os.File); ok && !fromStdin && term.IsTerminal(f.Fd()) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		pw, err := term.ReadPassword(f.Fd())
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// rememberServer records the server and email for the next login. An
// explicit --server also becomes the default.
func (c *cli) rememberServer(email string, saveDefault bool) {
	server := c.settings.ServerURL
	c.profiles.Add(client.ServerProfile{BaseURL: server, LastEmail: email})
	c.profiles.Touch(server, email, time.Now().Unix())
	if err := c.profiles.Save(); err != nil {
		slog.Error("save server profiles", "err", err)
	}
	if saveDefault {
		if err := c.settings.Save(); err != nil {
			slog.Error("save settings", "err", err)
		}
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				if err := c.engine.Logout(ctx); err != nil {
					return err
				}
				c.expired = false
				_, _ = fmt.Fprintln(c.out, "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(_ context.Context, c *cli) error {
				rec, err := c.engine.Guard()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(c.out, titleStyle.Render(rec.UserName))
				_, _ = fmt.Fprintf(c.out, "role:   %s\nuser:   %d\nserver: %s\n", rec.Role, rec.UserID, c.settings.ServerURL)
				return nil
			})
		},
	}
}
