// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import "fmt"

// AnomalyType classifies frame anomalies that pass the checksum but look
// wrong at the protocol level.
type AnomalyType int

const (
	AnomalyUnexpectedSender AnomalyType = iota
	AnomalyEmptyPayload
	AnomalyBadSeparator
	AnomalyTruncatedGroup
)

// ValidationError describes one anomaly found in a frame.
type ValidationError struct {
	Type    AnomalyType
	Message string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a decoded frame for protocol-level anomalies.
// Returns an empty slice for a clean frame. Anomalies are advisory: the
// frame's decodable parameters are still applied.
func ValidateFrame(f *Frame) []ValidationError {
	var errs []ValidationError

	if !f.FromMaster() {
		errs = append(errs, ValidationError{
			Type:    AnomalyUnexpectedSender,
			Message: fmt.Sprintf("frame from unexpected sender 0x%02X", f.Sender()),
		})
	}

	payload := f.Payload()
	if len(payload) == 0 {
		errs = append(errs, ValidationError{
			Type:    AnomalyEmptyPayload,
			Message: "frame carries no parameters",
		})
		return errs
	}

	// Walk the separator structure with the default 2-byte width; the
	// catalog-aware decode may stop earlier, which is fine.
	i := 0
	for i < len(payload) {
		if payload[i] != 0x00 {
			errs = append(errs, ValidationError{
				Type: AnomalyBadSeparator,
				Message: fmt.Sprintf("expected 0x00 separator at payload offset %d, got 0x%02X",
					i, payload[i]),
			})
			break
		}
		if i+4 > len(payload) {
			errs = append(errs, ValidationError{
				Type:    AnomalyTruncatedGroup,
				Message: fmt.Sprintf("truncated parameter group at payload offset %d", i),
			})
			break
		}
		i += 4
	}

	return errs
}
