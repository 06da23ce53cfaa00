// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Thermoquad/syconlink/pkg/dictionary"
	"github.com/Thermoquad/syconlink/pkg/transport"
	"golang.org/x/term"
)

// GetPassword retrieves the WebSocket password from the environment or by
// prompting the user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("SYCON_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal, read a plain line instead
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenClient builds a dictionary client for the configured serial port or
// WebSocket bridge. The port itself is opened on the first reservation.
// Returns the client and a description of the connection.
func OpenClient(opts ...dictionary.Option) (*dictionary.Client, string, error) {
	if portName != "" && wsURL != "" {
		return nil, "", fmt.Errorf("--port and --url are mutually exclusive")
	}

	var m *transport.Manager
	var connInfo string

	switch {
	case wsURL != "":
		cfg := transport.WebSocketConfig{
			Username:      wsUsername,
			SkipSSLVerify: wsNoSSLVerify,
		}
		if wsUsername != "" {
			password, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			cfg.Password = password
		}
		m = transport.New(wsURL, minInterval,
			transport.WithOpener(transport.WebSocketOpener(cfg)),
			transport.WithLogger(logger))
		connInfo = fmt.Sprintf("WebSocket: %s", wsURL)

	case portName != "":
		m = transport.New(portName, minInterval, transport.WithLogger(logger))
		connInfo = fmt.Sprintf("Serial: %s @ %d baud", portName, transport.BaudRate)

	default:
		return nil, "", fmt.Errorf("either --port or --url is required")
	}

	opts = append([]dictionary.Option{dictionary.WithLogger(logger)}, opts...)
	return dictionary.New(m, opts...), connInfo, nil
}
