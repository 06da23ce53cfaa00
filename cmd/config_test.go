// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
port = " /dev/ttyUSB1 "
min_interval = "250ms"
log_level = "debug"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB1" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	if cfg.MinInterval != 250*time.Millisecond {
		t.Fatalf("unexpected min interval: %v", cfg.MinInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.URL != "" || cfg.Username != "" || cfg.NoSSLVerify {
		t.Fatalf("expected websocket settings to keep defaults, got %+v", cfg)
	}
}

func TestLoadConfigEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigWebSocket(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
url = "wss://bridge.local/serial"
username = "admin"
no_ssl_verify = true
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.URL != "wss://bridge.local/serial" || cfg.Username != "admin" || !cfg.NoSSLVerify {
		t.Fatalf("unexpected websocket settings: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", `baud = 19200`, "unknown key"},
		{"bad duration", `min_interval = "soon"`, "min_interval"},
		{"negative duration", `min_interval = "-1s"`, "negative"},
		{"malformed", `port = `, "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyConfigFlagsTakePrecedence(t *testing.T) {
	savedPort, savedInterval, savedURL := portName, minInterval, wsURL
	t.Cleanup(func() {
		portName, minInterval, wsURL = savedPort, savedInterval, savedURL
	})

	c := &cobra.Command{}
	c.Flags().StringVar(&portName, "port", "", "")
	c.Flags().DurationVar(&minInterval, "min-interval", DefaultConfig().MinInterval, "")
	c.Flags().StringVar(&wsURL, "url", "", "")
	if err := c.Flags().Parse([]string{"--port", "/dev/ttyS9"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	applyConfig(c, Config{
		Port:        "/dev/ttyUSB0",
		URL:         "ws://bridge/serial",
		MinInterval: time.Second,
	})

	if portName != "/dev/ttyS9" {
		t.Errorf("explicit flag overridden: port = %q", portName)
	}
	if minInterval != time.Second {
		t.Errorf("config not applied: min interval = %v", minInterval)
	}
	if wsURL != "ws://bridge/serial" {
		t.Errorf("config not applied: url = %q", wsURL)
	}
}

func TestNewLogger(t *testing.T) {
	var sb strings.Builder
	log, err := newLogger(" INFO ", &sb)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if strings.Contains(sb.String(), "hidden") || !strings.Contains(sb.String(), "shown") {
		t.Fatalf("unexpected log output: %q", sb.String())
	}

	if _, err := newLogger("loud", &sb); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
