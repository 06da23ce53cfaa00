// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dictionary reads integer variables from a Sycon Multidrop
// controller's data dictionary.
package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/Thermoquad/syconlink/pkg/transport"
	"github.com/rs/zerolog"
)

// Transport is the port access a Client needs. *transport.Manager
// implements it.
type Transport interface {
	Reserve() (*transport.Reservation, error)
	WriteAndReadUntil(frame []byte, terminator byte) ([]byte, error)
}

// Client performs dictionary reads over a Transport. Each ReadVariable is
// exactly one request/response round trip.
type Client struct {
	tr    Transport
	corr  *multidrop.Correlator
	log   zerolog.Logger
	stats *Statistics
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for exchange tracing
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithCorrelator replaces the randomly seeded serial number source
func WithCorrelator(corr *multidrop.Correlator) Option {
	return func(c *Client) {
		c.corr = corr
	}
}

// WithStatistics records the outcome of every read into stats
func WithStatistics(stats *Statistics) Option {
	return func(c *Client) {
		c.stats = stats
	}
}

// New creates a client on top of tr
func New(tr Transport, opts ...Option) *Client {
	c := &Client{
		tr:  tr,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.corr == nil {
		c.corr = multidrop.NewRandomCorrelator()
	}
	return c
}

// Open creates a client for the serial device at path. The port is opened
// lazily on the first reservation.
func Open(path string, minInterval time.Duration, log zerolog.Logger, opts ...transport.Option) *Client {
	opts = append([]transport.Option{transport.WithLogger(log)}, opts...)
	return New(transport.New(path, minInterval, opts...), WithLogger(log))
}

// Reserve holds the port open across several reads. Release the returned
// reservation when the batch is done.
func (c *Client) Reserve() (*transport.Reservation, error) {
	return c.tr.Reserve()
}

// ReadVariable reads the 32-bit value of hash[index]. Protocol failures are
// returned as errors wrapping the multidrop sentinels; no retries are made.
func (c *Client) ReadVariable(hash [2]byte, index uint8) (value int32, err error) {
	r, err := c.tr.Reserve()
	if err != nil {
		if c.stats != nil {
			c.stats.Update(err, 0)
		}
		return 0, err
	}
	defer r.Release()

	// Latency covers the round trip only, not the rate limit wait in Reserve
	if c.stats != nil {
		start := time.Now()
		defer func() {
			c.stats.Update(err, time.Since(start))
		}()
	}

	ex := c.corr.Begin(hash, index)
	log := c.log.With().
		Str("hash", multidrop.FormatHash(hash)).
		Uint8("index", index).
		Uint8("serial", ex.Serial).
		Logger()

	raw, err := c.tr.WriteAndReadUntil(ex.Request(), multidrop.EndByte)
	if err != nil {
		log.Warn().Err(err).Msg("exchange failed")
		return 0, fmt.Errorf("read %s[%d]: %w", multidrop.FormatHash(hash), index, err)
	}

	value, err = multidrop.DecodeResponse(raw, ex)
	if err != nil {
		log.Warn().Err(err).Str("rx", multidrop.FormatHex(raw)).Msg("bad response")
		return 0, fmt.Errorf("read %s[%d]: %w", multidrop.FormatHash(hash), index, err)
	}

	log.Debug().Int32("value", value).Msg("read")
	return value, nil
}

// ReadVariableRetry calls ReadVariable up to attempts times, waiting backoff
// between tries. Only protocol errors are retried; ctx is checked between
// attempts.
func (c *Client) ReadVariableRetry(ctx context.Context, hash [2]byte, index uint8, attempts int, backoff time.Duration) (int32, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := c.ReadVariable(hash, index)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !multidrop.IsProtocolError(err) || attempt == attempts {
			break
		}

		c.log.Debug().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying")
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return 0, lastErr
}
