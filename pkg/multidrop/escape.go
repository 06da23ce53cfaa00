// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

import (
	"bytes"
	"fmt"
)

// Escape replaces every reserved byte (STX, CR, ESC) in data with its
// two-byte escape sequence. data must not include the frame sentinels.
func Escape(data []byte) []byte {
	// Pre-allocate with extra space for potential escapes
	result := make([]byte, 0, len(data)*2)

	for _, b := range data {
		switch b {
		case StartByte:
			result = append(result, EscByte, escStart)
		case EndByte:
			result = append(result, EscByte, escEnd)
		case EscByte:
			result = append(result, EscByte, escEsc)
		default:
			result = append(result, b)
		}
	}

	return result
}

// Unescape is the exact inverse of Escape. An ESC followed by an unknown
// discriminator, or a trailing ESC, is an ErrInvalidEscape.
func Unescape(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false

	for i, b := range data {
		if !escapeNext {
			if b == EscByte {
				escapeNext = true
			} else {
				result = append(result, b)
			}
			continue
		}

		escapeNext = false
		switch b {
		case escStart:
			result = append(result, StartByte)
		case escEnd:
			result = append(result, EndByte)
		case escEsc:
			result = append(result, EscByte)
		default:
			return nil, fmt.Errorf("%w: 0x%02X 0x%02X at offset %d", ErrInvalidEscape, EscByte, b, i-1)
		}
	}

	if escapeNext {
		return nil, fmt.Errorf("%w: incomplete escape sequence at end of data", ErrInvalidEscape)
	}

	return result, nil
}

// frame wraps an unescaped body in sentinels, escaping the body only.
func frame(body []byte) []byte {
	stuffed := Escape(body)

	packet := make([]byte, 0, len(stuffed)+2)
	packet = append(packet, StartByte)
	packet = append(packet, stuffed...)
	packet = append(packet, EndByte)

	return packet
}

// unframe locates the last STX in raw, checks the CR terminator and returns
// the unescaped frame including both sentinels. Bytes before the last STX are
// line noise from before the frame started and are discarded.
func unframe(raw []byte) ([]byte, error) {
	start := bytes.LastIndexByte(raw, StartByte)
	if start < 0 {
		return nil, fmt.Errorf("%w: no start byte in %d bytes", ErrTruncated, len(raw))
	}
	raw = raw[start:]
	if len(raw) < 2 || raw[len(raw)-1] != EndByte {
		return nil, fmt.Errorf("%w: missing terminator", ErrTruncated)
	}

	body := raw[1 : len(raw)-1]
	if i := bytes.IndexByte(body, EndByte); i >= 0 {
		return nil, fmt.Errorf("%w: terminator at offset %d", ErrTruncated, i+1)
	}

	unstuffed, err := Unescape(body)
	if err != nil {
		return nil, err
	}

	result := make([]byte, 0, len(unstuffed)+2)
	result = append(result, StartByte)
	result = append(result, unstuffed...)
	result = append(result, EndByte)
	return result, nil
}
