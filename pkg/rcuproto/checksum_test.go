// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"single byte", []byte{0x5A}, 0x5A},
		{"self cancelling", []byte{0xAA, 0xAA}, 0x00},
		{"known read request", []byte{0xC0, 0x69, 0x02, 0x04, 0x9C}, 0x33},
		{"data frame header", []byte{0xC0, 0x00, 0x24, 0x04, 0x00, 0x01, 0x00, 0xEB}, 0x0A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum(% X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
			}
		})
	}
}

func TestChecksumOrderIndependent(t *testing.T) {
	a := Checksum([]byte{0x01, 0x02, 0x03})
	b := Checksum([]byte{0x03, 0x01, 0x02})
	if a != b {
		t.Errorf("XOR checksum should be order independent: 0x%02X != 0x%02X", a, b)
	}
}

func TestChecksumSingleBitFlipDetected(t *testing.T) {
	data := []byte{0xC0, 0x00, 0x24, 0x02, 0x00, 0x0B}
	want := Checksum(data)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(data))
			copy(flipped, data)
			flipped[i] ^= 1 << bit
			if Checksum(flipped) == want {
				t.Errorf("bit flip at byte %d bit %d not detected", i, bit)
			}
		}
	}
}
