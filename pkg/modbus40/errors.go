// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMoreData means the buffer holds a message prefix; feed more
	// bytes and retry.
	ErrNeedMoreData = errors.New("incomplete message")

	// ErrInvalidMessage means the buffer head cannot be a message; drop
	// one byte and retry.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidWidth is returned for value widths other than 1, 2 or 4.
	ErrInvalidWidth = errors.New("invalid value width")

	// ErrWriteRejected means the pump answered the write with a refusal
	// verdict.
	ErrWriteRejected = errors.New("write rejected by pump")

	// ErrWritePending means a write is already awaiting its verdict.
	ErrWritePending = errors.New("write already in flight")

	// ErrUnknownRegister means the register is not in the catalog.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrNotWritable means the catalog marks the register read-only.
	ErrNotWritable = errors.New("register is not writable")

	// ErrClientClosed means the client's receive loop has ended.
	ErrClientClosed = errors.New("client closed")
)

// ChecksumError reports a checksum mismatch with both values.
type ChecksumError struct {
	Want byte
	Got  byte
}

// Error implements the error interface.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: calculated 0x%02X, received 0x%02X", e.Want, e.Got)
}

// Unwrap lets callers match the error as ErrInvalidMessage.
func (e *ChecksumError) Unwrap() error {
	return ErrInvalidMessage
}
