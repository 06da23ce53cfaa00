// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/rs/zerolog"
)

// ErrNotReserved is returned by WriteAndReadUntil when no reservation is held
var ErrNotReserved = errors.New("transport: no reservation held")

// MaxReadBytes bounds the bytes accumulated while waiting for a terminator
const MaxReadBytes = 64

// Stats is a snapshot of the manager's port lifecycle counters
type Stats struct {
	Opens        uint64
	Closes       uint64
	Reservations uint32
}

// Manager arbitrates access to one port. The port is opened on the first
// reservation and closed when the last one is released, and consecutive
// exchanges are spaced at least minInterval apart.
type Manager struct {
	path        string
	minInterval time.Duration
	readTimeout time.Duration
	open        Opener
	log         zerolog.Logger

	mu         sync.Mutex
	count      uint32
	port       Port
	lastAccess time.Time
	opens      uint64
	closes     uint64

	// io serializes exchanges so concurrent callers never interleave bytes
	io sync.Mutex
}

// Option configures a Manager
type Option func(*Manager)

// WithOpener replaces the default serial port opener
func WithOpener(open Opener) Option {
	return func(m *Manager) {
		m.open = open
	}
}

// WithLogger sets the logger for port lifecycle and frame traffic
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithReadTimeout overrides the per-byte read timeout
func WithReadTimeout(t time.Duration) Option {
	return func(m *Manager) {
		m.readTimeout = t
	}
}

// New creates a manager for the port at path. The port is not opened until
// the first reservation.
func New(path string, minInterval time.Duration, opts ...Option) *Manager {
	m := &Manager{
		path:        path,
		minInterval: minInterval,
		readTimeout: ReadTimeout,
		open:        SerialOpener,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the device path or URL the manager opens
func (m *Manager) Path() string {
	return m.path
}

// Reserve takes a reference-counted hold on the port, opening it if this is
// the outermost reservation. Every call first waits until minInterval has
// passed since the last exchange. The returned reservation must be released
// exactly once.
func (m *Manager) Reserve() (*Reservation, error) {
	m.mu.Lock()
	wait := m.minInterval - time.Since(m.lastAccess)
	m.mu.Unlock()

	if wait > 0 {
		m.log.Debug().Dur("wait", wait).Msg("rate limit")
		time.Sleep(wait)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		if err := m.openLocked(); err != nil {
			return nil, err
		}
	}
	m.count++

	return &Reservation{m: m}, nil
}

func (m *Manager) openLocked() error {
	port, err := m.open(m.path)
	if err != nil {
		m.log.Warn().Err(err).Str("port", m.path).Msg("open failed")
		return fmt.Errorf("%w: %s: %w", multidrop.ErrPortUnavailable, m.path, err)
	}

	if err := port.SetReadTimeout(m.readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("%w: %s: failed to set timeout: %w", multidrop.ErrPortUnavailable, m.path, err)
	}

	m.port = port
	m.opens++
	m.log.Debug().Str("port", m.path).Msg("port opened")
	return nil
}

func (m *Manager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		panic(fmt.Errorf("%w: release with no reservation held", multidrop.ErrUnbalancedReservation))
	}

	m.count--
	if m.count > 0 {
		return
	}

	if err := m.port.Close(); err != nil {
		m.log.Warn().Err(err).Str("port", m.path).Msg("close failed")
	}
	m.port = nil
	m.closes++
	m.lastAccess = time.Now()
	m.log.Debug().Str("port", m.path).Msg("port closed")
}

// WriteAndReadUntil writes frame and reads byte by byte until terminator is
// seen. The write is held back until minInterval has passed since the last
// exchange, so callers whose reservations were granted together are still
// spaced apart. A read that returns no bytes within the per-byte timeout
// fails with multidrop.ErrTimeout. A reservation must be held.
func (m *Manager) WriteAndReadUntil(frame []byte, terminator byte) ([]byte, error) {
	m.io.Lock()
	defer m.io.Unlock()

	m.mu.Lock()
	port := m.port
	wait := m.minInterval - time.Since(m.lastAccess)
	m.mu.Unlock()

	if port == nil {
		return nil, ErrNotReserved
	}

	if wait > 0 {
		m.log.Debug().Dur("wait", wait).Msg("rate limit")
		time.Sleep(wait)
	}

	defer func() {
		m.mu.Lock()
		m.lastAccess = time.Now()
		m.mu.Unlock()
	}()

	// Drop anything left over from an earlier exchange that timed out
	if r, ok := port.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			m.log.Debug().Err(err).Msg("input reset failed")
		}
	}

	m.log.Debug().Str("tx", multidrop.FormatHex(frame)).Msg("write")
	if _, err := port.Write(frame); err != nil {
		return nil, fmt.Errorf("write to %s: %w", m.path, err)
	}

	buf := make([]byte, 0, multidrop.MaxWireSize)
	b := make([]byte, 1)
	for {
		n, err := port.Read(b)
		if err != nil {
			if os.IsTimeout(err) {
				return buf, fmt.Errorf("%w: after %d bytes", multidrop.ErrTimeout, len(buf))
			}
			return buf, fmt.Errorf("read from %s: %w", m.path, err)
		}
		if n == 0 {
			return buf, fmt.Errorf("%w: after %d bytes", multidrop.ErrTimeout, len(buf))
		}

		buf = append(buf, b[0])
		if b[0] == terminator {
			m.log.Debug().Str("rx", multidrop.FormatHex(buf)).Msg("read")
			return buf, nil
		}
		if len(buf) >= MaxReadBytes {
			return buf, fmt.Errorf("%w: no terminator in %d bytes", multidrop.ErrTruncated, len(buf))
		}
	}
}

// Stats returns the manager's lifecycle counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Opens: m.opens, Closes: m.closes, Reservations: m.count}
}

// Reservation is a scoped hold on a Manager's port
type Reservation struct {
	m        *Manager
	released atomic.Bool
}

// Release drops the hold, closing the port if it was the last one. Releasing
// twice panics with multidrop.ErrUnbalancedReservation.
func (r *Reservation) Release() {
	if !r.released.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%w: reservation released twice", multidrop.ErrUnbalancedReservation))
	}
	r.m.release()
}
