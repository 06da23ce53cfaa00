// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

import (
	"math/rand"
	"sync"
)

// Exchange carries the correlation values of one request/response round trip.
type Exchange struct {
	Hash   [2]byte
	Index  uint8
	Serial uint8
}

// Request returns the wire frame for this exchange
func (e Exchange) Request() []byte {
	return EncodeRequest(e.Hash, e.Index, e.Serial)
}

// Correlator hands out packet serial numbers in [SerialMin, SerialMax].
// It is safe for concurrent use.
type Correlator struct {
	mu   sync.Mutex
	last uint8
}

// NewCorrelator creates a correlator whose first serial number is derived
// from seed.
func NewCorrelator(seed uint64) *Correlator {
	span := uint64(SerialMax - SerialMin + 1)
	return &Correlator{last: uint8(SerialMin + seed%span)}
}

// NewRandomCorrelator seeds a correlator from the runtime's random source so
// two clients started back to back are unlikely to reuse an in-flight serial.
func NewRandomCorrelator() *Correlator {
	return NewCorrelator(rand.Uint64())
}

// Next advances the counter and returns the new serial number
func (c *Correlator) Next() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last >= SerialMax || c.last < SerialMin {
		c.last = SerialMin
	} else {
		c.last++
	}
	return c.last
}

// Begin allocates a serial number for a read of hash[index]
func (c *Correlator) Begin(hash [2]byte, index uint8) Exchange {
	return Exchange{Hash: hash, Index: index, Serial: c.Next()}
}
