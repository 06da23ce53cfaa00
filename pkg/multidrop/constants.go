// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package multidrop implements the Sycon Multidrop packet codec used to read
// dictionary variables from a remote controller over RS-232.
//
// Frames are bounded by STX and CR, carry a two-nibble modular checksum, and
// escape reserved bytes between the sentinels. This package is pure: it
// builds and parses byte slices and never touches a port.
package multidrop

// Protocol framing bytes
const (
	StartByte = 0x02 // STX
	EndByte   = 0x0D // CR
	EscByte   = 0x07
)

// Escape discriminators following EscByte
const (
	escStart = 0x30
	escEnd   = 0x31
	escEsc   = 0x32
)

// Header values
const (
	AddressPointToPoint = 0x10
	CommandDictionary   = 0x80
)

// Operations
const (
	OpRead    = 'c'
	OpReadAck = 'A'
)

// Frame sizes (unescaped, including sentinels)
const (
	RequestSize  = 11
	ResponseSize = 15

	// MaxWireSize bounds an escaped response: every byte between the
	// sentinels could in principle be escaped.
	MaxWireSize = 2 + (ResponseSize-2)*2
)

// Checksum bias keeps both checksum bytes in 0x40..0x4F.
const checksumBias = 0x40

// Serial number window
const (
	SerialMin = 0x10
	SerialMax = 0xFF
)
