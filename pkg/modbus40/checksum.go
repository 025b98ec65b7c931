// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

// Checksum XOR-folds data with a zero seed. For this dialect the span is
// COMMAND through the last data byte; the start byte is excluded.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}
