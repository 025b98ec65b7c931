// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import "errors"

// Receiver assembles discrete validated frames from an arbitrary byte
// stream. Noise tolerance: every structural or checksum mismatch at the
// head of the buffer discards exactly one byte, so a valid frame
// overlapping the garbage is never skipped.
type Receiver struct {
	buf       []byte
	stats     *Statistics
	discarded uint64
}

// NewReceiver creates an empty receiver. stats may be nil.
func NewReceiver(stats *Statistics) *Receiver {
	return &Receiver{
		buf:   make([]byte, 0, MaxFrameSize*2),
		stats: stats,
	}
}

// Feed appends raw bytes and returns every complete valid frame now
// available, in arrival order.
func (r *Receiver) Feed(data []byte) []*Frame {
	r.buf = append(r.buf, data...)

	var frames []*Frame
	for len(r.buf) > 0 {
		frame, n, err := DecodeFrame(r.buf)
		if err == nil {
			frames = append(frames, frame)
			r.buf = r.buf[n:]
			if r.stats != nil {
				r.stats.FrameValid()
			}
			continue
		}
		if errors.Is(err, ErrNeedMoreData) {
			break
		}

		// Invalid frame: drop one leading byte and retry.
		var csErr *ChecksumError
		if r.stats != nil && errors.As(err, &csErr) {
			r.stats.ChecksumError()
		}
		r.dropByte()
	}

	// Trim stale leading noise so the buffer stays bounded even when no
	// start byte ever shows up.
	for len(r.buf) > MaxFrameSize {
		r.dropByte()
	}

	return frames
}

func (r *Receiver) dropByte() {
	r.buf = r.buf[1:]
	r.discarded++
	if r.stats != nil {
		r.stats.ByteDiscarded()
	}
}

// Pending returns the number of buffered bytes not yet consumed.
func (r *Receiver) Pending() int {
	return len(r.buf)
}

// Discarded returns the total number of bytes dropped during resync.
func (r *Receiver) Discarded() uint64 {
	return r.discarded
}

// Reset clears the buffer, e.g. after a session restart.
func (r *Receiver) Reset() {
	r.buf = r.buf[:0]
}
