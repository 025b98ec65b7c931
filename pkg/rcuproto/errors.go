// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMoreData signals that the buffer does not yet hold a
	// complete frame. Not a failure; feed more bytes and retry.
	ErrNeedMoreData = errors.New("need more data")

	// ErrInvalidFrame signals a structural mismatch at the head of the
	// buffer. The caller drops exactly one byte and retries.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrNoAddressing is returned when the master did not address the
	// RCU within the configured timeout. The cycle counts as empty;
	// callers may retry.
	ErrNoAddressing = errors.New("no addressing detected")

	// ErrNoResponse is returned when no valid frame arrived after the
	// addressing handshake.
	ErrNoResponse = errors.New("no response from pump")

	// ErrWriteRejected is returned when the pump answers the write
	// frame with a NAK.
	ErrWriteRejected = errors.New("write rejected by pump")

	// ErrWriteFailed is returned when the write handshake broke down:
	// the ENQ was never acknowledged, or no verdict arrived.
	ErrWriteFailed = errors.New("write failed")

	// ErrNotWritable is returned for write attempts on a read-only
	// register.
	ErrNotWritable = errors.New("register not writable")

	// ErrUnknownRegister is returned for operations on an index the
	// catalog does not define.
	ErrUnknownRegister = errors.New("unknown register")
)

// ChecksumError reports a checksum mismatch on an otherwise complete
// frame. It unwraps to ErrInvalidFrame so callers resync the same way.
type ChecksumError struct {
	Want byte
	Got  byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02X, got 0x%02X", e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error {
	return ErrInvalidFrame
}
