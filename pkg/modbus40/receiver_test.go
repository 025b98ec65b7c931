// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import (
	"bytes"
	"testing"
)

func TestReceiverResync(t *testing.T) {
	garbage := []byte{0x12, 0xC0, 0x99}
	stream := append(append([]byte{}, garbage...), readRequest40004...)

	r := NewReceiver()
	msgs := r.Feed(stream)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !bytes.Equal(msgs[0].Raw(), readRequest40004) {
		t.Errorf("message = % X, want % X", msgs[0].Raw(), readRequest40004)
	}
	if r.Discarded() != uint64(len(garbage)) {
		t.Errorf("discarded = %d, want %d", r.Discarded(), len(garbage))
	}
}

// A stray start byte followed by a non-command byte must not leave the
// receiver waiting for a phantom payload; the message behind it has to
// come out without any further bytes arriving.
func TestReceiverStrayStartByte(t *testing.T) {
	r := NewReceiver()
	msgs := r.Feed(append([]byte{StartByte, 0xFE}, readRequest40004...))
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !bytes.Equal(msgs[0].Raw(), readRequest40004) {
		t.Errorf("message = % X, want % X", msgs[0].Raw(), readRequest40004)
	}
}

func TestReceiverByteAtATime(t *testing.T) {
	r := NewReceiver()
	var msgs []*Message
	for _, b := range readRequest40004 {
		msgs = append(msgs, r.Feed([]byte{b})...)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
}

func TestReceiverChecksumErrorCounted(t *testing.T) {
	corrupted := make([]byte, len(readRequest40004))
	copy(corrupted, readRequest40004)
	corrupted[len(corrupted)-1] ^= 0x01

	r := NewReceiver()
	msgs := r.Feed(append(corrupted, readRequest40004...))
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if r.ChecksumErrors() == 0 {
		t.Error("checksum error not counted")
	}
}

func FuzzReceiver(f *testing.F) {
	f.Add([]byte{})
	f.Add(readRequest40004)
	f.Add([]byte{StartByte, 0x68, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewReceiver()
		for _, msg := range r.Feed(data) {
			raw := msg.Raw()
			if Checksum(raw[1:len(raw)-1]) != raw[len(raw)-1] {
				t.Errorf("emitted message fails checksum: % X", raw)
			}
		}
		if r.Pending() > MaxMessageSize {
			t.Errorf("buffer grew unbounded: %d", r.Pending())
		}
	})
}
