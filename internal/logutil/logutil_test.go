package logutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/spf13/viper"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"debug+2": slog.LevelDebug + 2,
	} {
		got, err := parseLevel(in)
		be.Err(t, err, nil)
		be.Equal(t, got, want)
	}
	_, err := parseLevel("verbose")
	be.Err(t, err, "unknown logging.level")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json"}, &buf)
	be.Err(t, err, nil)
	logger.Debug("query issued", "request_id", "r1")

	var record map[string]any
	be.Err(t, json.Unmarshal(buf.Bytes(), &record), nil)
	be.Equal(t, record["msg"], any("query issued"))
	be.Equal(t, record["request_id"], any("r1"))
}

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn"}, &buf)
	be.Err(t, err, nil)
	logger.Info("hidden")
	logger.Warn("shown")
	be.True(t, !strings.Contains(buf.String(), "hidden"))
	be.True(t, strings.Contains(buf.String(), "shown"))
}

func TestSourceIsShortened(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", AddSource: true}, &buf)
	be.Err(t, err, nil)
	logger.Info("hello")

	var record map[string]any
	be.Err(t, json.Unmarshal(buf.Bytes(), &record), nil)
	src, _ := record["source"].(string)
	be.True(t, strings.HasPrefix(src, "logutil_test.go:"))
}

func TestOpenAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pbap.log")
	for _, msg := range []string{"first", "second"} {
		logger, closeLog, err := Open(Config{File: path})
		be.Err(t, err, nil)
		logger.Info(msg)
		be.Err(t, closeLog(), nil)
	}
	raw, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(raw), "msg=first"))
	be.True(t, strings.Contains(string(raw), "msg=second"))
}

func TestConfigFromViperRejectsUnknownFormat(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("logging.format", "xml")
	_, _, err := Open(ConfigFromViper())
	be.Err(t, err, "unknown logging.format")
}
