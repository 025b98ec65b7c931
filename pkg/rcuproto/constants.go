// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

// Package rcuproto implements the Nibe 360P room-control-unit protocol:
// the 9-bit MARK/SPACE addressed RS-485 dialect in which the pump's master
// controller polls each device with a two-byte addressing sequence and
// broadcasts packed parameter frames.
//
// The package provides the frame codec, an incremental bus receiver with
// noise resync, the link session state machine (addressing, ACK/ETX
// handshake, ENQ write branch) and a multi-cycle bulk collector.
package rcuproto

// Protocol constants for the 360P dialect. The session Config carries
// these too, so alternate device models can override them.
const (
	StartByte     = 0xC0
	MasterAddress = 0x24
	RCUAddress    = 0x14

	ACK = 0x06
	ENQ = 0x05
	NAK = 0x15
	ETX = 0x03
)

// Frame geometry: [START, 0x00, SENDER, LENGTH, payload..., CHECKSUM].
const (
	headerSize    = 4
	frameOverhead = 5

	// MaxFrameSize bounds the receive buffer; the length field is one
	// byte so a frame can never exceed 255 payload bytes plus overhead.
	MaxFrameSize = 255 + frameOverhead
)

// State is the link session phase. Exactly one State exists per active
// session; only the session's receive loop mutates it.
type State int

const (
	StateIdle State = iota
	StateWaitingForAddressing
	StateReadyToReceive
	StateAwaitingFrame
	StateProcessingFrame
	StateAwaitingEtx

	// Write branch states.
	StateEnqSent
	StateAwaitingEnqAck
	StateFrameSent
	StateAwaitingAckNak
)

var stateNames = map[State]string{
	StateIdle:                 "IDLE",
	StateWaitingForAddressing: "WAITING_FOR_ADDRESSING",
	StateReadyToReceive:       "READY_TO_RECEIVE",
	StateAwaitingFrame:        "AWAITING_FRAME",
	StateProcessingFrame:      "PROCESSING_FRAME",
	StateAwaitingEtx:          "AWAITING_ETX",
	StateEnqSent:              "ENQ_SENT",
	StateAwaitingEnqAck:       "AWAITING_ENQ_ACK",
	StateFrameSent:            "FRAME_SENT",
	StateAwaitingAckNak:       "AWAITING_ACK_NAK",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
