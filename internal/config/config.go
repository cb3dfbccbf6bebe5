// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package config loads server configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/atriumworld/atrium/internal/xdg"
)

// Config holds everything the serve command needs to boot a space.
type Config struct {
	// MapPath points at the world definition document.
	MapPath string `koanf:"map-path"`
	// MenuDir holds interactable menu scripts (*.lua). Empty disables menus.
	MenuDir string `koanf:"menu-dir"`
	// DatabaseURL is the snapshot store DSN. Empty runs without persistence.
	DatabaseURL string `koanf:"database-url"`
	// MetricsAddr is the observability listen address. Empty disables it.
	MetricsAddr string `koanf:"metrics-addr"`
	LogFormat   string `koanf:"log-format"`
	LogLevel    string `koanf:"log-level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
		LogLevel:    "info",
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	errb := oops.In("config")
	if c.MapPath == "" {
		return errb.Code("MISSING_MAP_PATH").Errorf("map-path is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return errb.Code("BAD_LOG_FORMAT").With("log_format", c.LogFormat).
			Errorf("log-format must be json or text")
	}
	return nil
}

// DefaultPath returns the XDG location probed when no --config flag is
// given: $XDG_CONFIG_HOME/atrium/atrium.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "atrium.yaml")
}

// Load merges, in precedence order: built-in defaults, the YAML file at path,
// then any flags changed on flags. An empty path falls back to DefaultPath
// when that file exists, and to defaults-plus-flags when it does not.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		if candidate := DefaultPath(); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("FILE_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.In("config").Code("FLAG_LOAD_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Code("UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
