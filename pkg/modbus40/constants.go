// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

// Package modbus40 implements the Nibe "MODBUS 40" accessory protocol:
// the request/response RS-485 dialect spoken by the pump families that
// address parameters with five-digit register numbers such as 40004.
//
// Messages are [START, COMMAND, LENGTH, data..., CHECKSUM] with the
// checksum spanning COMMAND through the last data byte. Register numbers
// and values travel little-endian, unlike the 360P dialect.
package modbus40

// Command identifies a message type on the wire.
type Command byte

const (
	// CmdDataMessage is the pump's periodic broadcast of register
	// values, packed as register/value quads.
	CmdDataMessage Command = 0x68

	CmdReadRequest   Command = 0x69
	CmdReadResponse  Command = 0x6A
	CmdWriteRequest  Command = 0x6B
	CmdWriteResponse Command = 0x6C

	// CmdAnnouncement is the pump probing for the accessory; it only
	// expects an ACK back.
	CmdAnnouncement Command = 0x6D
)

var commandNames = map[Command]string{
	CmdDataMessage:   "DATA",
	CmdReadRequest:   "READ_REQ",
	CmdReadResponse:  "READ_RESP",
	CmdWriteRequest:  "WRITE_REQ",
	CmdWriteResponse: "WRITE_RESP",
	CmdAnnouncement:  "ANNOUNCE",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

const (
	StartByte = 0xC0

	ACK = 0x06
	NAK = 0x15
)

// Message geometry: [START, COMMAND, LENGTH, data..., CHECKSUM].
const (
	headerSize      = 3
	messageOverhead = 4

	// MaxMessageSize bounds the receive buffer.
	MaxMessageSize = 255 + messageOverhead
)

// WriteAccepted is the verdict byte in a write response's data.
const WriteAccepted = 0x01
