// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import "io"

// Port is the byte transport the session runs over. Reads should return
// promptly with whatever bytes are available; a read timeout surfacing as
// (0, nil) is fine and keeps the session loop responsive.
type Port interface {
	io.Reader
	io.Writer
}

// ParitySwitcher is implemented by transports that emulate the bus's
// 9-bit framing with parity tricks: address bytes arrive with the ninth
// bit set (MARK parity on receive), data is sent with it clear (SPACE
// parity on transmit). Transports without parity control, such as replay
// readers, simply don't implement it.
type ParitySwitcher interface {
	// SetReceiveParity configures the port for receiving addressed
	// traffic (MARK).
	SetReceiveParity() error

	// SetTransmitParity configures the port for sending data bytes
	// (SPACE).
	SetTransmitParity() error
}

// switchToTransmit flips the port to transmit parity when supported.
func switchToTransmit(p Port) error {
	if ps, ok := p.(ParitySwitcher); ok {
		return ps.SetTransmitParity()
	}
	return nil
}

// switchToReceive flips the port back to receive parity when supported.
func switchToReceive(p Port) error {
	if ps, ok := p.(ParitySwitcher); ok {
		return ps.SetReceiveParity()
	}
	return nil
}
