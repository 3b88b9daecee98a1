package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/table"
)

const defaultConfigFile = "wdbx.toml"

// Config is the optional configuration file. Flags given on the command line win.
type Config struct {
	Definitions      string `toml:"definitions"`
	Build            uint32 `toml:"build"`
	LogLevel         string `toml:"log_level"`
	OutputDir        string `toml:"output_dir"`
	Parallelism      int    `toml:"parallelism"`
	DuplicateStrings string `toml:"duplicate_strings"`
	NoCopyCompaction bool   `toml:"no_copy_compaction"`
	Debug            bool   `toml:"debug"`
}

func defaultConfig() *Config {
	return &Config{
		Definitions:      "definitions",
		LogLevel:         "info",
		Parallelism:      common.DefaultLoadParallelism,
		DuplicateStrings: "auto",
	}
}

// loadConfig reads path over the defaults. A missing file is only an error when the
// path was asked for explicitly.
func loadConfig(path string, required bool) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := parseConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	if _, err := c.SaveOptions(); err != nil {
		return err
	}
	if _, _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) SaveOptions() (table.SaveOptions, error) {
	opts := table.SaveOptions{NoCopyCompaction: c.NoCopyCompaction}
	switch strings.ToLower(c.DuplicateStrings) {
	case "", "auto":
		opts.DuplicateStrings = table.DuplicateStringsAuto
	case "allow":
		opts.DuplicateStrings = table.DuplicateStringsAllow
	case "deny":
		opts.DuplicateStrings = table.DuplicateStringsDeny
	default:
		return opts, fmt.Errorf("duplicate_strings must be auto, allow or deny, got %q", c.DuplicateStrings)
	}
	return opts, nil
}

// parseLogLevel maps a level name to the ShPrintf kinds and the slog handler level.
func parseLogLevel(name string) (common.LogLevel, slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return common.DEBUG_INFO | common.CODEC_OP_DETAIL | common.DEBUGGING | common.INFO | common.WARN | common.ERROR | common.FATAL, slog.LevelDebug, nil
	case "trace":
		return common.DEBUG_INFO_DETAIL | common.DEBUG_INFO | common.CODEC_OP_DETAIL | common.DEBUGGING | common.INFO | common.WARN | common.ERROR | common.FATAL, slog.LevelDebug, nil
	case "", "info":
		return common.INFO | common.WARN | common.ERROR | common.FATAL, slog.LevelInfo, nil
	case "warn":
		return common.WARN | common.ERROR | common.FATAL, slog.LevelWarn, nil
	case "error":
		return common.ERROR | common.FATAL, slog.LevelError, nil
	}
	return 0, 0, fmt.Errorf("unknown log level %q", name)
}
