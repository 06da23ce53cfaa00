// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

import "errors"

// Line and framing errors. These are expected operating conditions on a noisy
// link and are returned, never panicked.
var (
	ErrTimeout              = errors.New("multidrop: timeout waiting for terminator")
	ErrChecksumMismatch     = errors.New("multidrop: checksum mismatch")
	ErrUnexpectedOperation  = errors.New("multidrop: unexpected operation")
	ErrSerialNumberMismatch = errors.New("multidrop: serial number mismatch")
	ErrHashCodeMismatch     = errors.New("multidrop: hash code mismatch")
	ErrTruncated            = errors.New("multidrop: truncated frame")
	ErrInvalidEscape        = errors.New("multidrop: invalid escape sequence")
)

// ErrPortUnavailable is returned when the OS refuses to open the port.
var ErrPortUnavailable = errors.New("multidrop: port unavailable")

// ErrUnbalancedReservation is the panic value raised when a reservation is
// released more times than it was acquired.
var ErrUnbalancedReservation = errors.New("multidrop: unbalanced reservation")

var protocolErrors = []error{
	ErrTimeout,
	ErrChecksumMismatch,
	ErrUnexpectedOperation,
	ErrSerialNumberMismatch,
	ErrHashCodeMismatch,
	ErrTruncated,
	ErrInvalidEscape,
}

// IsProtocolError reports whether err is a recoverable line error, i.e. one a
// caller may reasonably retry.
func IsProtocolError(err error) bool {
	for _, target := range protocolErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
