// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import "errors"

// Receiver assembles discrete validated messages from an arbitrary byte
// stream, dropping exactly one byte per invalid verdict so a valid
// message overlapping garbage is never skipped.
type Receiver struct {
	buf       []byte
	discarded uint64
	errors    uint64
}

// NewReceiver creates an empty receiver.
func NewReceiver() *Receiver {
	return &Receiver{buf: make([]byte, 0, MaxMessageSize*2)}
}

// Feed appends raw bytes and returns every complete valid message now
// available, in arrival order.
func (r *Receiver) Feed(data []byte) []*Message {
	r.buf = append(r.buf, data...)

	var msgs []*Message
	for len(r.buf) > 0 {
		msg, n, err := DecodeMessage(r.buf)
		if err == nil {
			msgs = append(msgs, msg)
			r.buf = r.buf[n:]
			continue
		}
		if errors.Is(err, ErrNeedMoreData) {
			break
		}
		var csErr *ChecksumError
		if errors.As(err, &csErr) {
			r.errors++
		}
		r.dropByte()
	}

	for len(r.buf) > MaxMessageSize {
		r.dropByte()
	}

	return msgs
}

func (r *Receiver) dropByte() {
	r.buf = r.buf[1:]
	r.discarded++
}

// Pending returns the number of buffered bytes not yet consumed.
func (r *Receiver) Pending() int {
	return len(r.buf)
}

// Discarded returns the total bytes dropped during resync.
func (r *Receiver) Discarded() uint64 {
	return r.discarded
}

// ChecksumErrors returns the number of messages rejected for checksum
// mismatches.
func (r *Receiver) ChecksumErrors() uint64 {
	return r.errors
}

// Reset clears the buffer.
func (r *Receiver) Reset() {
	r.buf = r.buf[:0]
}
