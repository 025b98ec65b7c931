// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import (
	"time"

	"github.com/MackanT/NibeTester/pkg/catalog"
)

// DecodeMessage inspects buf for one complete message starting at
// buf[0]. On success it returns the message and the consumed byte
// count. ErrNeedMoreData means the buffer is too short to decide;
// ErrInvalidMessage (including ChecksumError) means the caller must
// drop exactly one leading byte and retry.
func DecodeMessage(buf []byte) (*Message, int, error) {
	if len(buf) < headerSize {
		return nil, 0, ErrNeedMoreData
	}
	if buf[0] != StartByte {
		return nil, 0, ErrInvalidMessage
	}
	// Reject unknown commands before trusting the length byte; a stray
	// start byte in noise must not stall the stream waiting for a
	// phantom payload.
	if _, ok := commandNames[Command(buf[1])]; !ok {
		return nil, 0, ErrInvalidMessage
	}

	length := int(buf[2])
	total := length + messageOverhead
	if len(buf) < total {
		return nil, 0, ErrNeedMoreData
	}

	// Checksum spans COMMAND through the last data byte.
	want := Checksum(buf[1 : total-1])
	got := buf[total-1]
	if want != got {
		return nil, 0, &ChecksumError{Want: want, Got: got}
	}

	raw := make([]byte, total)
	copy(raw, buf[:total])

	return &Message{
		command:   Command(raw[1]),
		data:      raw[headerSize : total-1],
		raw:       raw,
		timestamp: time.Now(),
	}, total, nil
}

// EncodeMessage builds a complete message for a command and payload,
// appending the checksum.
func EncodeMessage(cmd Command, data []byte) []byte {
	msg := make([]byte, 0, len(data)+messageOverhead)
	msg = append(msg, StartByte, byte(cmd), byte(len(data)))
	msg = append(msg, data...)
	msg = append(msg, Checksum(msg[1:]))
	return msg
}

// EncodeReadRequest builds a read request for one register.
func EncodeReadRequest(register uint16) []byte {
	return EncodeMessage(CmdReadRequest, []byte{byte(register), byte(register >> 8)})
}

// EncodeWriteRequest builds a write request carrying a raw value of the
// given width. Width must be 1, 2 or 4 bytes.
func EncodeWriteRequest(register uint16, raw int64, width int) ([]byte, error) {
	data := []byte{byte(register), byte(register >> 8)}
	data, err := AppendValue(data, raw, width)
	if err != nil {
		return nil, err
	}
	return EncodeMessage(CmdWriteRequest, data), nil
}

// AppendValue appends a raw value little-endian at the given width.
func AppendValue(dst []byte, raw int64, width int) ([]byte, error) {
	switch width {
	case 1:
		return append(dst, byte(raw)), nil
	case 2:
		return append(dst, byte(raw), byte(raw>>8)), nil
	case 4:
		return append(dst, byte(raw), byte(raw>>8), byte(raw>>16), byte(raw>>24)), nil
	default:
		return nil, ErrInvalidWidth
	}
}

// DecodeValue reads a little-endian raw value of the given width, with
// two's-complement sign extension when signed.
func DecodeValue(data []byte, width int, signed bool) (int64, error) {
	switch width {
	case 1, 2, 4:
	default:
		return 0, ErrInvalidWidth
	}
	if len(data) < width {
		return 0, ErrNeedMoreData
	}

	var raw uint64
	for i := width - 1; i >= 0; i-- {
		raw = raw<<8 | uint64(data[i])
	}
	if !signed {
		return int64(raw), nil
	}
	shift := uint(64 - width*8)
	return int64(raw<<shift) >> shift, nil
}

// DataItem is one register/value pair from a pump data message.
type DataItem struct {
	Register uint16
	Raw      int64
	Known    bool
}

// DecodeDataMessage unpacks a 0x68 data message's payload: consecutive
// quads of little-endian register number and 16-bit value. A truncated
// trailing quad is dropped without failing the message. Registers absent
// from the catalog are kept with default signed 16-bit decoding.
func DecodeDataMessage(data []byte, cat *catalog.Catalog) []DataItem {
	var items []DataItem

	for i := 0; i+4 <= len(data); i += 4 {
		register := uint16(data[i]) | uint16(data[i+1])<<8

		signed := true
		known := false
		if cat != nil {
			if reg, ok := cat.Lookup(register); ok {
				known = true
				signed = reg.Signed
			}
		}

		raw, err := DecodeValue(data[i+2:i+4], 2, signed)
		if err != nil {
			break
		}
		items = append(items, DataItem{Register: register, Raw: raw, Known: known})
	}

	return items
}
