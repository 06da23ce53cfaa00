// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConfig configures a serial-over-WebSocket bridge connection
type WebSocketConfig struct {
	Username      string
	Password      string
	SkipSSLVerify bool
}

// WebSocketPort carries the serial byte stream over binary WebSocket messages.
// Messages are pumped by a reader goroutine so a read timeout does not
// poison the underlying connection.
type WebSocketPort struct {
	conn      *websocket.Conn
	messages  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	buf     []byte
	timeout time.Duration
	err     error
}

func newWebSocketPort(conn *websocket.Conn) *WebSocketPort {
	w := &WebSocketPort{
		conn:     conn,
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
		timeout:  ReadTimeout,
	}
	go w.pump()
	return w
}

func (w *WebSocketPort) pump() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			return
		}

		// We only handle binary messages for the serial stream
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.messages <- data:
		case <-w.done:
			return
		}
	}
}

// Read returns buffered bytes, or waits up to the read timeout for the next
// binary message. A timeout yields (0, nil).
func (w *WebSocketPort) Read(p []byte) (int, error) {
	w.mu.Lock()
	if len(w.buf) > 0 {
		n := copy(p, w.buf)
		w.buf = w.buf[n:]
		w.mu.Unlock()
		return n, nil
	}
	timeout := w.timeout
	w.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		w.mu.Lock()
		defer w.mu.Unlock()
		if !ok {
			if w.err != nil {
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)
			}
			return 0, ErrConnectionClosed
		}
		n := copy(p, data)
		w.buf = data[n:]
		return n, nil
	case <-timer.C:
		return 0, nil
	}
}

func (w *WebSocketPort) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadTimeout sets the per-read timeout
func (w *WebSocketPort) SetReadTimeout(t time.Duration) error {
	w.mu.Lock()
	w.timeout = t
	w.mu.Unlock()
	return nil
}

// ResetInputBuffer discards bytes already received but not yet read
func (w *WebSocketPort) ResetInputBuffer() error {
	w.mu.Lock()
	w.buf = nil
	w.mu.Unlock()
	for {
		select {
		case _, ok := <-w.messages:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (w *WebSocketPort) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.conn.Close()
}

// WebSocketOpener returns an Opener that treats the path as a ws:// or wss://
// URL and authenticates with HTTP Basic auth when a username is set.
func WebSocketOpener(cfg WebSocketConfig) Opener {
	return func(wsURL string) (Port, error) {
		// Parse and validate URL
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}

		switch u.Scheme {
		case "ws", "wss":
			// OK
		default:
			return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
		}

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}

		if u.Scheme == "wss" {
			dialer.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: cfg.SkipSSLVerify,
			}
		}

		headers := http.Header{}
		if cfg.Username != "" && cfg.Password != "" {
			credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
			headers.Set("Authorization", "Basic "+credentials)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
			}
			return nil, fmt.Errorf("WebSocket connection failed: %w", err)
		}

		return newWebSocketPort(conn), nil
	}
}
