// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"bytes"
	"testing"
)

func TestReceiverCleanStream(t *testing.T) {
	frame1 := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	frame2 := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x02, 521, 2))

	r := NewReceiver(nil)
	frames := r.Feed(append(append([]byte{}, frame1...), frame2...))

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), frame1) {
		t.Errorf("frame 0 = % X, want % X", frames[0].Raw(), frame1)
	}
	if !bytes.Equal(frames[1].Raw(), frame2) {
		t.Errorf("frame 1 = % X, want % X", frames[1].Raw(), frame2)
	}
	if r.Pending() != 0 {
		t.Errorf("pending = %d, want 0", r.Pending())
	}
}

func TestReceiverByteAtATime(t *testing.T) {
	frame := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))

	r := NewReceiver(nil)
	var got []*Frame
	for _, b := range frame {
		got = append(got, r.Feed([]byte{b})...)
	}
	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
	if !bytes.Equal(got[0].Raw(), frame) {
		t.Errorf("frame = % X, want % X", got[0].Raw(), frame)
	}
}

func TestReceiverResyncAfterGarbage(t *testing.T) {
	frame := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	garbage := []byte{0x12, 0x34, 0xC0, 0x99, 0xFF}

	r := NewReceiver(nil)
	frames := r.Feed(append(append([]byte{}, garbage...), frame...))

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), frame) {
		t.Errorf("frame = % X, want % X", frames[0].Raw(), frame)
	}
	if r.Discarded() != uint64(len(garbage)) {
		t.Errorf("discarded = %d, want %d", r.Discarded(), len(garbage))
	}
}

// A frame whose start overlaps the tail of a corrupted one must still be
// found: resync drops exactly one byte per invalid verdict, never a span.
func TestReceiverOneByteResync(t *testing.T) {
	frame := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))

	// A bogus start byte directly before the real frame: the decoder
	// rejects [C0, C0, ...], drops one byte, and must land exactly on
	// the real frame start.
	stream := append([]byte{StartByte}, frame...)

	r := NewReceiver(nil)
	frames := r.Feed(stream)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), frame) {
		t.Errorf("frame = % X, want % X", frames[0].Raw(), frame)
	}
}

func TestReceiverChecksumErrorCounted(t *testing.T) {
	frame := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	corrupted := make([]byte, len(frame))
	copy(corrupted, frame)
	corrupted[len(corrupted)-1] ^= 0x01

	stats := NewStatistics()
	r := NewReceiver(stats)
	frames := r.Feed(append(corrupted, frame...))

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	snap := stats.Snapshot()
	if snap.ChecksumErrors == 0 {
		t.Error("checksum error not counted")
	}
	if snap.FramesValid != 1 {
		t.Errorf("valid frames = %d, want 1", snap.FramesValid)
	}
}

func TestReceiverBufferBounded(t *testing.T) {
	r := NewReceiver(nil)
	noise := make([]byte, 4*MaxFrameSize)
	for i := range noise {
		noise[i] = 0x55
	}
	r.Feed(noise)
	if r.Pending() > MaxFrameSize {
		t.Errorf("pending = %d, want <= %d", r.Pending(), MaxFrameSize)
	}
}

func FuzzReceiver(f *testing.F) {
	f.Add([]byte{})
	f.Add(EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2)))
	f.Add([]byte{StartByte, 0x00, 0x24, 0xFF})
	f.Add([]byte{0x00, 0x14, StartByte, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewReceiver(nil)
		frames := r.Feed(data)
		for _, frame := range frames {
			// Every emitted frame must verify against its own bytes.
			raw := frame.Raw()
			if Checksum(raw[:len(raw)-1]) != raw[len(raw)-1] {
				t.Errorf("emitted frame fails checksum: % X", raw)
			}
			if len(frame.Payload()) != int(frame.Length()) {
				t.Errorf("payload length %d != length field %d",
					len(frame.Payload()), frame.Length())
			}
		}
		if r.Pending() > MaxFrameSize {
			t.Errorf("buffer grew unbounded: %d", r.Pending())
		}
	})
}
