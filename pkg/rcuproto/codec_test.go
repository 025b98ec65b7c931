// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MackanT/NibeTester/pkg/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.New([]catalog.Register{
		{Index: 0x00, Name: "CPU ID", Width: 1, Scale: 1},
		{Index: 0x01, Name: "Outdoor Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x02, Name: "Hot Water Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
	})
}

func TestDecodeFrameRoundTrip(t *testing.T) {
	payload := AppendParameter(nil, 0x01, 235, 2)
	payload = AppendParameter(payload, 0x02, 521, 2)
	encoded := EncodeDataFrame(MasterAddress, payload)

	frame, n, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(encoded) {
		t.Errorf("consumed %d bytes, want %d", n, len(encoded))
	}
	if frame.Sender() != MasterAddress {
		t.Errorf("sender = 0x%02X, want 0x%02X", frame.Sender(), MasterAddress)
	}
	if !frame.FromMaster() {
		t.Error("FromMaster() = false for master frame")
	}
	if !bytes.Equal(frame.Payload(), payload) {
		t.Errorf("payload = % X, want % X", frame.Payload(), payload)
	}
	if !bytes.Equal(frame.Raw(), encoded) {
		t.Errorf("raw = % X, want % X", frame.Raw(), encoded)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	valid := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))

	corrupted := make([]byte, len(valid))
	copy(corrupted, valid)
	corrupted[len(corrupted)-1] ^= 0xFF

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrNeedMoreData},
		{"short header", valid[:3], ErrNeedMoreData},
		{"incomplete frame", valid[:len(valid)-1], ErrNeedMoreData},
		{"wrong start byte", append([]byte{0x55}, valid[1:]...), ErrInvalidFrame},
		{"nonzero second byte", []byte{StartByte, 0x01, 0x24, 0x00, 0x00}, ErrInvalidFrame},
		{"bad checksum", corrupted, ErrInvalidFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeFrame(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeFrame error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeFrameChecksumError(t *testing.T) {
	valid := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	valid[len(valid)-1] ^= 0x01

	_, _, err := DecodeFrame(valid)
	var csErr *ChecksumError
	if !errors.As(err, &csErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if csErr.Got != valid[len(valid)-1] {
		t.Errorf("Got = 0x%02X, want 0x%02X", csErr.Got, valid[len(valid)-1])
	}
	if !errors.Is(err, ErrInvalidFrame) {
		t.Error("ChecksumError should unwrap to ErrInvalidFrame")
	}
}

func TestDecodeParameters(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name    string
		payload []byte
		want    []Parameter
	}{
		{
			name:    "two byte signed value",
			payload: []byte{0x00, 0x01, 0x00, 0xEB},
			want:    []Parameter{{Index: 0x01, Raw: 235, Width: 2, Known: true}},
		},
		{
			name:    "negative temperature",
			payload: []byte{0x00, 0x01, 0xFF, 0xB5},
			want:    []Parameter{{Index: 0x01, Raw: -75, Width: 2, Known: true}},
		},
		{
			name:    "minimum int16",
			payload: []byte{0x00, 0x01, 0x80, 0x00},
			want:    []Parameter{{Index: 0x01, Raw: -32768, Width: 2, Known: true}},
		},
		{
			name:    "maximum int16",
			payload: []byte{0x00, 0x01, 0x7F, 0xFF},
			want:    []Parameter{{Index: 0x01, Raw: 32767, Width: 2, Known: true}},
		},
		{
			name:    "one byte width from catalog",
			payload: []byte{0x00, 0x00, 0x2A, 0x00, 0x01, 0x00, 0xEB},
			want: []Parameter{
				{Index: 0x00, Raw: 42, Width: 1, Known: true},
				{Index: 0x01, Raw: 235, Width: 2, Known: true},
			},
		},
		{
			name:    "unknown index defaults to two bytes signed",
			payload: []byte{0x00, 0x7F, 0xFF, 0xFE},
			want:    []Parameter{{Index: 0x7F, Raw: -2, Width: 2, Known: false}},
		},
		{
			name:    "missing separator stops the walk",
			payload: []byte{0x00, 0x01, 0x00, 0xEB, 0x42, 0x02, 0x00, 0x01},
			want:    []Parameter{{Index: 0x01, Raw: 235, Width: 2, Known: true}},
		},
		{
			name:    "truncated trailing group keeps earlier values",
			payload: []byte{0x00, 0x01, 0x00, 0xEB, 0x00, 0x02, 0x01},
			want:    []Parameter{{Index: 0x01, Raw: 235, Width: 2, Known: true}},
		},
		{
			name:    "empty payload",
			payload: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeParameters(tt.payload, cat)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d parameters, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parameter %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		raw    uint64
		width  int
		signed bool
		want   int64
	}{
		{0xFF, 1, true, -1},
		{0xFF, 1, false, 255},
		{0x80, 1, true, -128},
		{0x8000, 2, true, -32768},
		{0x7FFF, 2, true, 32767},
		{0xFFFF, 2, false, 65535},
		{0xFFFFFFFF, 4, true, -1},
		{0x00000000, 4, true, 0},
	}

	for _, tt := range tests {
		got := signExtend(tt.raw, tt.width, tt.signed)
		if got != tt.want {
			t.Errorf("signExtend(0x%X, %d, %v) = %d, want %d",
				tt.raw, tt.width, tt.signed, got, tt.want)
		}
	}
}

func TestAppendParameterRoundTrip(t *testing.T) {
	cat := testCatalog(t)

	payload := AppendParameter(nil, 0x01, -75, 2)
	params := DecodeParameters(payload, cat)
	if len(params) != 1 {
		t.Fatalf("got %d parameters, want 1", len(params))
	}
	if params[0].Raw != -75 {
		t.Errorf("round trip raw = %d, want -75", params[0].Raw)
	}
}
