// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport owns the physical link to a Sycon Multidrop controller:
// opening and closing the port, spacing commands, and reading frames.
package transport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Line configuration mandated by the controller
const (
	BaudRate    = 9600
	ReadTimeout = time.Second
)

// Port is a byte stream with a per-read timeout. A Read that times out
// returns 0 bytes and a nil error, matching go.bug.st/serial.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens the port at path
type Opener func(path string) (Port, error)

// SerialOpener opens an OS serial port at 9600 8N1
func SerialOpener(path string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return port, nil
}

// ListPorts returns the serial ports known to the OS
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// inputResetter is implemented by ports that can drop unread input
type inputResetter interface {
	ResetInputBuffer() error
}
