// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import "time"

// Message is one decoded and checksum-verified protocol message.
type Message struct {
	command   Command
	data      []byte
	raw       []byte
	timestamp time.Time
}

// Command returns the message type.
func (m *Message) Command() Command {
	return m.command
}

// Data returns the message payload, without framing or checksum.
func (m *Message) Data() []byte {
	return m.data
}

// Raw returns the complete message bytes.
func (m *Message) Raw() []byte {
	return m.raw
}

// Timestamp returns the decode timestamp.
func (m *Message) Timestamp() time.Time {
	return m.timestamp
}

// Register returns the register number for message types that carry one
// in their first two data bytes (read/write requests and responses).
func (m *Message) Register() (uint16, bool) {
	switch m.command {
	case CmdReadRequest, CmdReadResponse, CmdWriteRequest:
	default:
		return 0, false
	}
	if len(m.data) < 2 {
		return 0, false
	}
	return uint16(m.data[0]) | uint16(m.data[1])<<8, true
}

// ValueBytes returns the value portion of a read response or write
// request, after the register number.
func (m *Message) ValueBytes() []byte {
	if len(m.data) < 2 {
		return nil
	}
	return m.data[2:]
}
