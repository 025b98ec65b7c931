// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import "time"

// Frame represents one decoded and checksum-verified data frame.
type Frame struct {
	sender    byte
	length    uint8
	payload   []byte
	checksum  byte
	raw       []byte
	timestamp time.Time
}

// Sender returns the bus address that produced the frame.
func (f *Frame) Sender() byte {
	return f.sender
}

// Length returns the frame's payload length byte.
func (f *Frame) Length() uint8 {
	return f.length
}

// Payload returns the packed parameter payload.
func (f *Frame) Payload() []byte {
	return f.payload
}

// Checksum returns the checksum byte received on the wire.
func (f *Frame) Checksum() byte {
	return f.checksum
}

// Raw returns the complete frame bytes including framing and checksum.
func (f *Frame) Raw() []byte {
	return f.raw
}

// Timestamp returns the frame's decode timestamp.
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// FromMaster reports whether the frame was sent by the pump's master
// controller at its default address.
func (f *Frame) FromMaster() bool {
	return f.sender == MasterAddress
}
