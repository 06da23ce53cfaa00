// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dictionary

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
)

func TestStatistics_NewStatistics(t *testing.T) {
	s := NewStatistics()
	if s.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
	if s.TotalReads != 0 {
		t.Errorf("TotalReads should be 0, got %d", s.TotalReads)
	}
}

func TestStatistics_Update_Success(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, 30*time.Millisecond)
	s.Update(nil, 10*time.Millisecond)

	if s.TotalReads != 2 || s.SuccessfulReads != 2 {
		t.Errorf("expected 2 successful reads, got total=%d ok=%d", s.TotalReads, s.SuccessfulReads)
	}
	if s.MinLatency != 10*time.Millisecond || s.MaxLatency != 30*time.Millisecond {
		t.Errorf("unexpected latency range: %v..%v", s.MinLatency, s.MaxLatency)
	}
	if avg := s.AverageLatency(); avg != 20*time.Millisecond {
		t.Errorf("expected 20ms average, got %v", avg)
	}
}

func TestStatistics_Update_ErrorKinds(t *testing.T) {
	s := NewStatistics()

	wrap := func(err error) error { return fmt.Errorf("read 5F95[0]: %w", err) }
	s.Update(wrap(multidrop.ErrTimeout), 0)
	s.Update(wrap(multidrop.ErrChecksumMismatch), 0)
	s.Update(wrap(multidrop.ErrUnexpectedOperation), 0)
	s.Update(wrap(multidrop.ErrSerialNumberMismatch), 0)
	s.Update(wrap(multidrop.ErrHashCodeMismatch), 0)
	s.Update(wrap(multidrop.ErrTruncated), 0)
	s.Update(wrap(multidrop.ErrInvalidEscape), 0)
	s.Update(wrap(multidrop.ErrPortUnavailable), 0)
	s.Update(errors.New("write failed"), 0)

	counters := map[string]uint64{
		"Timeouts":         s.Timeouts,
		"ChecksumErrors":   s.ChecksumErrors,
		"UnexpectedOps":    s.UnexpectedOps,
		"SerialMismatches": s.SerialMismatches,
		"HashMismatches":   s.HashMismatches,
		"Truncated":        s.Truncated,
		"InvalidEscapes":   s.InvalidEscapes,
		"PortErrors":       s.PortErrors,
		"OtherErrors":      s.OtherErrors,
	}
	for name, count := range counters {
		if count != 1 {
			t.Errorf("%s should be 1, got %d", name, count)
		}
	}
	if s.Errors() != 9 {
		t.Errorf("expected 9 errors, got %d", s.Errors())
	}
	if s.SuccessfulReads != 0 {
		t.Errorf("no read should count as successful, got %d", s.SuccessfulReads)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, time.Millisecond)
	s.Update(multidrop.ErrTimeout, 0)

	s.Reset()

	if s.TotalReads != 0 || s.SuccessfulReads != 0 || s.Timeouts != 0 {
		t.Error("counters should be reset")
	}
	if s.MinLatency != 0 || s.MaxLatency != 0 || s.AverageLatency() != 0 {
		t.Error("latency should be reset")
	}
}

func TestStatistics_CalculateRates(t *testing.T) {
	s := NewStatistics()
	s.StartTime = time.Now().Add(-2 * time.Second)
	s.Update(nil, 0)
	s.Update(multidrop.ErrTimeout, 0)

	s.CalculateRates()

	if s.ReadRate <= 0 || s.ReadRate > 1.1 {
		t.Errorf("expected ~1 read/sec, got %.2f", s.ReadRate)
	}
	if s.ErrorRate <= 0 || s.ErrorRate > 0.6 {
		t.Errorf("expected ~0.5 errors/sec, got %.2f", s.ErrorRate)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, 12*time.Millisecond)
	s.Update(multidrop.ErrChecksumMismatch, 0)

	out := s.String()
	for _, want := range []string{"Total Reads:", "Successful:", "Checksum Errors:", "Latency:", "Read Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Timeouts:") {
		t.Errorf("zero counters should be omitted:\n%s", out)
	}
}
