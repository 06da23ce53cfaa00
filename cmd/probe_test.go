// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/syconlink/pkg/dictionary"
	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/Thermoquad/syconlink/pkg/transport"
)

// linePort answers nothing, and fails every write once unplugged
type linePort struct {
	mu        sync.Mutex
	unplugged bool
	writes    int
}

func (p *linePort) Read(b []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, nil
}

func (p *linePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes++
	if p.unplugged {
		return 0, errors.New("device not configured")
	}
	return len(b), nil
}

func (p *linePort) SetReadTimeout(t time.Duration) error { return nil }
func (p *linePort) Close() error { return nil }

func runProbeLoop(t *testing.T, port *linePort, count int) bool {
	t.Helper()
	savedCount, savedInterval, savedIndex := probeCount, probeInterval, probeIndex
	t.Cleanup(func() {
		probeCount, probeInterval, probeIndex = savedCount, savedInterval, savedIndex
	})
	probeCount, probeInterval, probeIndex = count, 0, 0

	m := transport.New("/dev/ttyTEST", 0,
		transport.WithOpener(func(string) (transport.Port, error) { return port, nil }),
		transport.WithReadTimeout(time.Millisecond),
	)
	client := dictionary.New(m, dictionary.WithCorrelator(multidrop.NewCorrelator(0)))

	r, err := client.Reserve()
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	defer r.Release()

	done := make(chan bool, 1)
	go func() { done <- probeLoop(context.Background(), client, [2]byte{0x5F, 0x95}) }()

	select {
	case lost := <-done:
		return lost
	case <-time.After(5 * time.Second):
		t.Fatal("probe loop did not stop")
		return false
	}
}

func TestProbeLoop_StopsWhenPortLost(t *testing.T) {
	port := &linePort{unplugged: true}

	if lost := runProbeLoop(t, port, 0); !lost {
		t.Fatal("expected write failure to be reported as a lost port")
	}
	if port.writes != 1 {
		t.Errorf("expected loop to stop after first failure, got %d writes", port.writes)
	}
}

func TestProbeLoop_CountsLineErrors(t *testing.T) {
	port := &linePort{}

	if lost := runProbeLoop(t, port, 3); lost {
		t.Fatal("timeouts must not be reported as a lost port")
	}
	if port.writes != 3 {
		t.Errorf("expected 3 reads, got %d", port.writes)
	}
}
