// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package multidrop

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Frame represents a decoded Sycon Multidrop frame
type Frame struct {
	address   uint8
	command   uint8
	op        uint8
	hash      [2]byte
	index     uint8
	data      int32
	serial    uint8
	checksum  uint8
	response  bool
	timestamp time.Time
}

// Address returns the station address byte
func (f *Frame) Address() uint8 {
	return f.address
}

// Command returns the command/response flag byte
func (f *Frame) Command() uint8 {
	return f.command
}

// Op returns the operation character
func (f *Frame) Op() uint8 {
	return f.op
}

// Hash returns the two-byte dictionary hash code
func (f *Frame) Hash() [2]byte {
	return f.hash
}

// Index returns the array index
func (f *Frame) Index() uint8 {
	return f.index
}

// Data returns the signed payload (zero for requests)
func (f *Frame) Data() int32 {
	return f.data
}

// Serial returns the packet serial number
func (f *Frame) Serial() uint8 {
	return f.serial
}

// Checksum returns the decoded checksum value
func (f *Frame) Checksum() uint8 {
	return f.checksum
}

// IsResponse returns true for frames with the response layout
func (f *Frame) IsResponse() bool {
	return f.response
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// EncodeRequest builds a complete, escaped dictionary read request.
func EncodeRequest(hash [2]byte, index uint8, serial uint8) []byte {
	body := []byte{
		AddressPointToPoint,
		CommandDictionary,
		OpRead,
		hash[0],
		hash[1],
		index,
		serial,
	}
	return frame(appendChecksum(body))
}

// EncodeResponse builds the frame a controller sends back for a dictionary
// read. Used to simulate a device.
func EncodeResponse(hash [2]byte, index uint8, data int32, serial uint8) []byte {
	body := make([]byte, 0, ResponseSize-2)
	body = append(body,
		AddressPointToPoint,
		CommandDictionary,
		OpReadAck,
		hash[0],
		hash[1],
		index,
	)
	body = binary.LittleEndian.AppendUint32(body, uint32(data))
	body = append(body, serial)
	return frame(appendChecksum(body))
}

func appendChecksum(body []byte) []byte {
	hi, lo := ChecksumBytes(Checksum(body))
	return append(body, hi, lo)
}

// ParseFrame unescapes raw and decodes it as either a request or a response,
// selected by its unescaped length. The checksum is verified; operation and
// correlation are not.
func ParseFrame(raw []byte) (*Frame, error) {
	data, err := unframe(raw)
	if err != nil {
		return nil, err
	}
	if len(data) != RequestSize && len(data) != ResponseSize {
		return nil, fmt.Errorf("%w: %d bytes (want %d or %d)", ErrTruncated, len(data), RequestSize, ResponseSize)
	}

	// Strip sentinels: fields are everything before the two checksum bytes
	body := data[1 : len(data)-1]
	fields := body[:len(body)-2]

	received, ok := checksumFromBytes(body[len(body)-2], body[len(body)-1])
	calculated := Checksum(fields)
	if !ok || received != calculated {
		return nil, fmt.Errorf("%w: expected 0x%02X, got 0x%02X%02X", ErrChecksumMismatch,
			calculated, body[len(body)-2], body[len(body)-1])
	}

	f := &Frame{
		address:   fields[0],
		command:   fields[1],
		op:        fields[2],
		hash:      [2]byte{fields[3], fields[4]},
		index:     fields[5],
		checksum:  received,
		timestamp: time.Now(),
	}

	if len(data) == ResponseSize {
		f.response = true
		f.data = int32(binary.LittleEndian.Uint32(fields[6:10]))
		f.serial = fields[10]
	} else {
		f.serial = fields[6]
	}

	return f, nil
}

// ParseResponse decodes raw as a dictionary read response without checking
// correlation. Anything but the fixed response length is ErrTruncated.
func ParseResponse(raw []byte) (*Frame, error) {
	f, err := ParseFrame(raw)
	if err != nil {
		return nil, err
	}
	if !f.response {
		return nil, fmt.Errorf("%w: %d bytes (want %d)", ErrTruncated, RequestSize, ResponseSize)
	}

	if f.op != OpReadAck || f.command != CommandDictionary {
		return nil, fmt.Errorf("%w: op=0x%02X cmd=0x%02X", ErrUnexpectedOperation, f.op, f.command)
	}

	return f, nil
}

// DecodeResponse validates raw against the exchange it answers and returns
// the decoded payload.
func DecodeResponse(raw []byte, want Exchange) (int32, error) {
	f, err := ParseResponse(raw)
	if err != nil {
		return 0, err
	}

	if f.serial != want.Serial {
		return 0, fmt.Errorf("%w: sent 0x%02X, got 0x%02X", ErrSerialNumberMismatch, want.Serial, f.serial)
	}
	if f.hash != want.Hash || f.index != want.Index {
		return 0, fmt.Errorf("%w: sent %s[%d], got %s[%d]", ErrHashCodeMismatch,
			FormatHash(want.Hash), want.Index, FormatHash(f.hash), f.index)
	}

	return f.data, nil
}
