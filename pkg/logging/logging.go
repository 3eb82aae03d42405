// Package logging provides configurable structured logging for medscribe.
//
// The desktop app and clinicctl both use Go's standard log/slog with
// configurable levels. Log levels from most to least verbose: DEBUG, INFO,
// WARN, ERROR.
//
// Credentials never reach the output: attributes named token,
// access_token, authorization, or password are replaced with "[REDACTED]"
// at any nesting depth.
//
// Usage:
//
//	logging.Setup(logging.FromEnv())
//	slog.Debug("request", "path", "/patients/12", "request_id", id)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "MEDSCRIBE_LOG_LEVEL"
	EnvFormat = "MEDSCRIBE_LOG_FORMAT"
)

// Redacted replaces sensitive attribute values.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"authorization": true,
	"password":      true,
}

// Options controls how logging is configured.
type Options struct {
	Level  string    // "debug", "info", "warn", "error" (default: "info")
	Format string    // "text" or "json" (default: "text")
	Output io.Writer // where to write logs (default: os.Stderr)
}

// FromEnv reads MEDSCRIBE_LOG_LEVEL and MEDSCRIBE_LOG_FORMAT.
func FromEnv() Options {
	return Options{
		Level:  os.Getenv(EnvLevel),
		Format: os.Getenv(EnvFormat),
	}
}

// FromEnvOr is FromEnv with level used when MEDSCRIBE_LOG_LEVEL is unset,
// typically the level saved in settings.
func FromEnvOr(level string) Options {
	opts := FromEnv()
	if opts.Level == "" {
		opts.Level = level
	}
	return opts
}

// ParseLevel converts a string level name to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from opts without installing it.
func New(opts Options) (*slog.Logger, error) {
	if err := Validate(opts.Level); err != nil {
		return nil, err
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := ParseLevel(opts.Level)

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug, // include file:line in debug mode
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler), nil
}

// Setup initialises the global slog logger with the given options.
// Safe to call early in main() before any logging occurs.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// LevelNames returns all valid level names, useful for --help text.
func LevelNames() string {
	return "debug, info, warn, error"
}

// Validate returns an error if the level string is not recognized.
func Validate(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "":
		return nil
	default:
		return fmt.Errorf("unknown log level %q (valid: %s)", level, LevelNames())
	}
}

// ValidateFormat returns an error unless format is "text", "json", or empty.
func ValidateFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "json", "":
		return nil
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", format)
	}
}
