// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Config holds connection settings shared by all commands
type Config struct {
	Port        string
	URL         string
	Username    string
	NoSSLVerify bool
	MinInterval time.Duration
	LogLevel    string
}

// DefaultConfig returns the settings used when neither a flag nor the config
// file provides a value
func DefaultConfig() Config {
	return Config{
		MinInterval: 100 * time.Millisecond,
		LogLevel:    "warn",
	}
}

// config.toml key mapping
type fileConfig struct {
	Port        string `toml:"port"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	MinInterval string `toml:"min_interval"`
	LogLevel    string `toml:"log_level"`
}

// loadConfig reads a TOML config file and overlays it on DefaultConfig
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("username") {
		cfg.Username = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("no_ssl_verify") {
		cfg.NoSSLVerify = raw.NoSSLVerify
	}
	if meta.IsDefined("min_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MinInterval))
		if err != nil {
			return Config{}, fmt.Errorf("load config: min_interval: %w", err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("load config: min_interval must not be negative")
		}
		cfg.MinInterval = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}

// applyConfig copies cfg into the flag variables the user did not set
func applyConfig(cmd *cobra.Command, cfg Config) {
	flags := cmd.Flags()
	if !flags.Changed("port") {
		portName = cfg.Port
	}
	if !flags.Changed("url") {
		wsURL = cfg.URL
	}
	if !flags.Changed("username") {
		wsUsername = cfg.Username
	}
	if !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = cfg.NoSSLVerify
	}
	if !flags.Changed("min-interval") {
		minInterval = cfg.MinInterval
	}
	if !flags.Changed("log-level") {
		logLevel = cfg.LogLevel
	}
}
