// Command clinicctl is the terminal client for the clinical records backend.
// It shares the session, settings and audit trail with the desktop app.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/logging"
	"github.com/NicolasHaas/medscribe/pkg/session"
	"github.com/NicolasHaas/medscribe/pkg/version"
)

// errLoginRequired is returned after the engine navigated to login: there
// was no session, or the backend rejected the stored token.
var errLoginRequired = errors.New("Session expired. Please sign in again: clinicctl login")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// options holds the persistent flags.
type options struct {
	server    string
	config    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Terminal client for the clinical records backend",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "", "backend base URL (default from settings)")
	root.PersistentFlags().StringVar(&opts.config, "config", client.SettingsPath(), "settings file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: "+logging.LevelNames())
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newPatientsCmd(opts))
	root.AddCommand(newNotesCmd(opts))
	root.AddCommand(newVitalsCmd(opts))
	root.AddCommand(newShareCmd(opts))
	root.AddCommand(newReportCmd(opts))
	root.AddCommand(newDictateCmd(opts))
	root.AddCommand(newAuditCmd(opts))
	return root
}

// cli is everything a subcommand needs, built once per invocation.
type cli struct {
	engine   *client.Engine
	settings *client.Settings
	profiles *client.ProfileStore
	auditLog *audit.Log
	out      io.Writer
	in       io.Reader

	// expired is set by the navigator.
	expired bool
}

// loadConfig layers the settings file, MEDSCRIBE_* env vars and flags.
func loadConfig(cmd *cobra.Command, opts *options) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(opts.config)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MEDSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := client.DefaultSettings()
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("display_zone", d.DisplayZone)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("upload_timeout", d.UploadTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"log_level":  "log-level",
		"log_format": "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	if opts.server != "" {
		v.Set("server_url", opts.server)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", opts.config, err)
		}
	}
	return v, nil
}

// open builds the engine for a subcommand. The session, server profiles and
// audit trail live next to the settings file.
func open(cmd *cobra.Command, opts *options) (*cli, error) {
	v, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(logging.Options{
		Level:  v.GetString("log_level"),
		Format: v.GetString("log_format"),
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return nil, err
	}

	settings := client.LoadSettingsFrom(opts.config)
	settings.ServerURL = v.GetString("server_url")
	settings.DisplayZone = v.GetString("display_zone")
	settings.RequestTimeout = v.GetDuration("request_timeout")
	settings.UploadTimeout = v.GetDuration("upload_timeout")
	if input := v.GetString("audio_input"); input != "" {
		settings.AudioInput = input
	}
	if db := v.GetString("audit_db"); db != "" {
		settings.AuditDB = db
	}

	dir := filepath.Dir(opts.config)
	c := &cli{
		settings: settings,
		profiles: client.NewProfileStoreAt(filepath.Join(dir, "servers.yaml")),
		out:      cmd.OutOrStdout(),
		in:       cmd.InOrStdin(),
	}
	if err := c.profiles.Load(); err != nil {
		slog.Warn("load server profiles", "err", err)
	}

	cfg := client.Config{
		Settings:  settings,
		Sessions:  session.NewManager(session.NewFileStore(filepath.Join(dir, "session.yaml"))),
		Navigator: client.NavigatorFunc(func() { c.expired = true }),
	}
	auditPath := settings.AuditDB
	if auditPath == "" {
		auditPath = filepath.Join(dir, "audit.db")
	}
	if auditLog, err := audit.Open(auditPath); err != nil {
		slog.Warn("audit trail unavailable", "path", auditPath, "err", err)
	} else {
		c.auditLog = auditLog
		cfg.Audit = auditLog
	}

	engine, err := client.NewEngine(cfg)
	if err != nil {
		c.close()
		return nil, err
	}
	c.engine = engine
	return c, nil
}

func (c *cli) close() {
	if c.auditLog == nil {
		return
	}
	if err := c.auditLog.Close(); err != nil {
		slog.Error("close audit log", "err", err)
	}
}

// run opens the engine, runs fn, and turns session loss into the re-login
// instruction.
func run(cmd *cobra.Command, opts *options, fn func(ctx context.Context, c *cli) error) error {
	c, err := open(cmd, opts)
	if err != nil {
		return err
	}
	defer c.close()

	err = fn(cmd.Context(), c)
	if c.expired || errors.Is(err, session.ErrNoSession) || errors.Is(err, api.ErrUnauthorized) {
		return errLoginRequired
	}
	return err
}
