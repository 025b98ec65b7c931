// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

// Checksum computes the XOR checksum over a byte span, seed 0.
//
// For this dialect the checksum span is the whole frame from the start
// byte through the last payload byte; the trailing byte on the wire must
// equal the recomputed value.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}
