// Package logutil builds the command line logger. Response bodies go to
// stdout, so logs go to stderr or to the file named by logging.file.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the logging.* section of the configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// File receives the log instead of stderr when set. It is appended to.
	File string
}

// ConfigFromViper reads the logging.* keys.
func ConfigFromViper() Config {
	return Config{
		Level:     viper.GetString("logging.level"),
		Format:    viper.GetString("logging.format"),
		AddSource: viper.GetBool("logging.add_source"),
		File:      strings.TrimSpace(viper.GetString("logging.file")),
	}
}

// Open builds the logger for cfg. The returned func closes the log file,
// if one was opened.
func Open(cfg Config) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg.File == "" {
		l, err := New(cfg, os.Stderr)
		return l, noop, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, noop, fmt.Errorf("logutil: opening %s: %w", cfg.File, err)
	}
	l, err := New(cfg, f)
	if err != nil {
		f.Close()
		return nil, noop, err
	}
	return l, f.Close, nil
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	if cfg.AddSource {
		opts.ReplaceAttr = shortSource
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logutil: unknown logging.format %q", cfg.Format)
	}
}

// parseLevel accepts slog level names, with offsets such as "debug+2",
// plus "warning". Empty means info.
func parseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logutil: unknown logging.level %q", s)
	}
	return l, nil
}

// shortSource trims the source attribute to file:line.
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
		a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}
	return a
}
