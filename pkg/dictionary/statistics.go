// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dictionary

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
)

// Statistics tracks read outcomes and link quality
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalReads       uint64
	SuccessfulReads  uint64
	Timeouts         uint64
	ChecksumErrors   uint64
	UnexpectedOps    uint64
	SerialMismatches uint64
	HashMismatches   uint64
	Truncated        uint64
	InvalidEscapes   uint64
	PortErrors       uint64
	OtherErrors      uint64

	// Round trip latency of successful reads
	MinLatency   time.Duration
	MaxLatency   time.Duration
	totalLatency time.Duration

	// Rates (calculated)
	ReadRate  float64 // reads/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of one read
func (s *Statistics) Update(err error, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalReads++
	s.LastUpdateTime = time.Now()

	switch {
	case err == nil:
		s.SuccessfulReads++
		if s.MinLatency == 0 || latency < s.MinLatency {
			s.MinLatency = latency
		}
		if latency > s.MaxLatency {
			s.MaxLatency = latency
		}
		s.totalLatency += latency
	case errors.Is(err, multidrop.ErrTimeout):
		s.Timeouts++
	case errors.Is(err, multidrop.ErrChecksumMismatch):
		s.ChecksumErrors++
	case errors.Is(err, multidrop.ErrUnexpectedOperation):
		s.UnexpectedOps++
	case errors.Is(err, multidrop.ErrSerialNumberMismatch):
		s.SerialMismatches++
	case errors.Is(err, multidrop.ErrHashCodeMismatch):
		s.HashMismatches++
	case errors.Is(err, multidrop.ErrTruncated):
		s.Truncated++
	case errors.Is(err, multidrop.ErrInvalidEscape):
		s.InvalidEscapes++
	case errors.Is(err, multidrop.ErrPortUnavailable):
		s.PortErrors++
	default:
		s.OtherErrors++
	}
}

// Errors returns the total number of failed reads
func (s *Statistics) Errors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TotalReads - s.SuccessfulReads
}

// AverageLatency returns the mean latency of successful reads
func (s *Statistics) AverageLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageLatencyLocked()
}

func (s *Statistics) averageLatencyLocked() time.Duration {
	if s.SuccessfulReads == 0 {
		return 0
	}
	return s.totalLatency / time.Duration(s.SuccessfulReads)
}

// CalculateRates calculates read and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRatesLocked()
}

func (s *Statistics) calculateRatesLocked() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ReadRate = float64(s.TotalReads) / elapsed
		s.ErrorRate = float64(s.TotalReads-s.SuccessfulReads) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRatesLocked()

	percent := func(n uint64) float64 {
		if s.TotalReads == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalReads)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Reads:     %8d\n", s.TotalReads)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", s.SuccessfulReads, percent(s.SuccessfulReads))

	rows := []struct {
		label string
		count uint64
	}{
		{"Timeouts:        ", s.Timeouts},
		{"Checksum Errors: ", s.ChecksumErrors},
		{"Unexpected Ops:  ", s.UnexpectedOps},
		{"Serial Mismatch: ", s.SerialMismatches},
		{"Hash Mismatch:   ", s.HashMismatches},
		{"Truncated:       ", s.Truncated},
		{"Invalid Escapes: ", s.InvalidEscapes},
		{"Port Errors:     ", s.PortErrors},
		{"Other Errors:    ", s.OtherErrors},
	}
	for _, row := range rows {
		if row.count > 0 {
			result += fmt.Sprintf("%s%8d (%.1f%%)\n", row.label, row.count, percent(row.count))
		}
	}

	if s.SuccessfulReads > 0 {
		result += fmt.Sprintf("Latency:         min %v / avg %v / max %v\n",
			s.MinLatency.Round(time.Millisecond),
			s.averageLatencyLocked().Round(time.Millisecond),
			s.MaxLatency.Round(time.Millisecond))
	}

	result += fmt.Sprintf("Read Rate:       %8.1f reads/sec\n", s.ReadRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalReads = 0
	s.SuccessfulReads = 0
	s.Timeouts = 0
	s.ChecksumErrors = 0
	s.UnexpectedOps = 0
	s.SerialMismatches = 0
	s.HashMismatches = 0
	s.Truncated = 0
	s.InvalidEscapes = 0
	s.PortErrors = 0
	s.OtherErrors = 0
	s.MinLatency = 0
	s.MaxLatency = 0
	s.totalLatency = 0
	s.ReadRate = 0
	s.ErrorRate = 0
}
