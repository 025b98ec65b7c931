// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"time"

	"github.com/MackanT/NibeTester/pkg/catalog"
)

// DecodeFrame inspects buf for one complete data frame starting at
// buf[0]. On success it returns the frame and the number of bytes
// consumed. ErrNeedMoreData means the buffer is too short to decide;
// ErrInvalidFrame (including ChecksumError) means the caller must drop
// exactly one leading byte and retry.
func DecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < headerSize {
		return nil, 0, ErrNeedMoreData
	}
	if buf[0] != StartByte {
		return nil, 0, ErrInvalidFrame
	}
	if buf[1] != 0x00 {
		return nil, 0, ErrInvalidFrame
	}

	length := int(buf[3])
	total := length + frameOverhead
	if len(buf) < total {
		return nil, 0, ErrNeedMoreData
	}

	want := Checksum(buf[:total-1])
	got := buf[total-1]
	if want != got {
		return nil, 0, &ChecksumError{Want: want, Got: got}
	}

	raw := make([]byte, total)
	copy(raw, buf[:total])

	return &Frame{
		sender:    raw[2],
		length:    raw[3],
		payload:   raw[headerSize : total-1],
		checksum:  got,
		raw:       raw,
		timestamp: time.Now(),
	}, total, nil
}

// EncodeDataFrame builds a complete data frame from a sender address and
// a packed parameter payload, appending the checksum.
func EncodeDataFrame(sender byte, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+frameOverhead)
	frame = append(frame, StartByte, 0x00, sender, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame))
	return frame
}

// AppendParameter packs one [0x00, index, value...] group onto a payload.
// Values are big-endian on the wire; width must be 1 or 2.
func AppendParameter(payload []byte, index uint8, raw int64, width int) []byte {
	payload = append(payload, 0x00, index)
	if width == 1 {
		return append(payload, byte(raw))
	}
	return append(payload, byte(raw>>8), byte(raw))
}

// Parameter is one value decoded from a packed frame payload.
type Parameter struct {
	Index uint8
	Raw   int64
	Width int
	Known bool // false when the catalog has no entry for the index
}

// DecodeParameters walks a packed payload of [0x00, index, value...]
// groups. The value width comes from the catalog (default 2 bytes for
// unknown indices; the dialect only ever uses 1 or 2). A missing 0x00
// separator or a truncated trailing group stops the walk without failing
// the frame — partial parameter sets are valid and common.
func DecodeParameters(payload []byte, cat *catalog.Catalog) []Parameter {
	var params []Parameter

	i := 0
	for i < len(payload) {
		if payload[i] != 0x00 {
			break
		}
		if i+1 >= len(payload) {
			break
		}

		index := payload[i+1]
		width := 2
		signed := true
		known := false
		if cat != nil {
			if reg, ok := cat.Lookup(uint16(index)); ok {
				known = true
				signed = reg.Signed
				if reg.Width == 1 {
					width = 1
				}
			}
		}

		if i+2+width > len(payload) {
			break
		}

		var raw uint64
		for _, b := range payload[i+2 : i+2+width] {
			raw = raw<<8 | uint64(b)
		}

		params = append(params, Parameter{
			Index: index,
			Raw:   signExtend(raw, width, signed),
			Width: width,
			Known: known,
		})
		i += 2 + width
	}

	return params
}

// signExtend interprets raw as a width-byte two's-complement value.
func signExtend(raw uint64, width int, signed bool) int64 {
	if !signed {
		return int64(raw)
	}
	shift := uint(64 - width*8)
	return int64(raw<<shift) >> shift
}
