// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

// Checksum computes the modulo-256 sum of the given header and data fields
func Checksum(fields []byte) byte {
	var sum byte
	for _, b := range fields {
		sum += b
	}
	return sum
}

// ChecksumBytes splits a checksum into its two biased wire nibbles
func ChecksumBytes(sum byte) (hi, lo byte) {
	return checksumBias | sum>>4, checksumBias | sum&0x0F
}

// checksumFromBytes is the inverse of ChecksumBytes. ok is false when either
// byte lies outside the biased nibble range.
func checksumFromBytes(hi, lo byte) (sum byte, ok bool) {
	if hi&0xF0 != checksumBias || lo&0xF0 != checksumBias {
		return 0, false
	}
	return (hi&0x0F)<<4 | lo&0x0F, true
}
