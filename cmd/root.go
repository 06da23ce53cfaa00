// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName    string
	minInterval time.Duration

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	configPath string
	logLevel   string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "syconlink",
	Short: "Sycon Multidrop dictionary client",
	Long: `Syconlink - A CLI tool for reading dictionary variables from controllers
that speak the Sycon Multidrop serial protocol.

Provides commands for reading variables, probing link quality, and decoding
captured frames to help diagnose communication issues.

Connection modes:
  Serial:    --port /dev/ttyUSB0 (9600 8N1, fixed by the controller)
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SYCON_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Settings may also be loaded from a TOML file with --config; flags given on the
command line take precedence.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	defaults := DefaultConfig()

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().DurationVar(&minInterval, "min-interval", defaults.MinInterval, "Minimum spacing between commands")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
}

// setup applies the config file under any flags not set explicitly, then
// builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		applyConfig(cmd, cfg)
	}

	l, err := newLogger(logLevel, os.Stderr)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
