// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")

	result := fmt.Sprintf("[%s] %s (0x%02X) addr=0x%02X cmd=0x%02X serial=0x%02X chk=0x%02X\n",
		timestamp, FormatOp(f.op), f.op, f.address, f.command, f.serial, f.checksum)
	result += fmt.Sprintf("  Variable: %s[%d]\n", FormatHash(f.hash), f.index)

	if f.response {
		result += fmt.Sprintf("  Value: %d (0x%08X)\n", f.data, uint32(f.data))
	}

	return result
}

// FormatOp returns the human-readable name for an operation character
func FormatOp(op uint8) string {
	switch op {
	case OpRead:
		return "DICT_READ"
	case OpReadAck:
		return "DICT_READ_ACK"
	default:
		return "UNKNOWN"
	}
}

// FormatHash renders a hash code as four hex digits, e.g. "5F95"
func FormatHash(hash [2]byte) string {
	return fmt.Sprintf("%02X%02X", hash[0], hash[1])
}

// FormatHex renders wire bytes as space-separated hex, wrapping every 16 bytes
func FormatHex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			if i%16 == 0 {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// ParseHex parses a hex dump such as "02 10 80" or "021080" into bytes.
// Whitespace, colons and a leading 0x on each group are ignored.
func ParseHex(s string) ([]byte, error) {
	var clean strings.Builder
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ':' || r == ','
	}) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		clean.WriteString(field)
	}

	data, err := hex.DecodeString(clean.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}

// ParseHashCode parses a hash code written as "5F95", "0x5F95" or "5F:95"
func ParseHashCode(s string) ([2]byte, error) {
	data, err := ParseHex(s)
	if err != nil {
		return [2]byte{}, err
	}
	if len(data) != 2 {
		return [2]byte{}, fmt.Errorf("hash code must be 2 bytes, got %d", len(data))
	}
	return [2]byte{data[0], data[1]}, nil
}
