// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"fmt"
	"strings"
)

// FormatFrame renders a frame as a one-line human-readable summary.
func FormatFrame(f *Frame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] frame sender=0x%02X len=%d",
		f.Timestamp().Format("15:04:05.000"), f.Sender(), f.Length())
	if f.FromMaster() {
		sb.WriteString(" (master)")
	}
	fmt.Fprintf(&sb, " payload=% X", f.Payload())
	return sb.String()
}

// FormatControl names a control byte for log output.
func FormatControl(b byte) string {
	switch b {
	case ACK:
		return "ACK"
	case ENQ:
		return "ENQ"
	case NAK:
		return "NAK"
	case ETX:
		return "ETX"
	default:
		return fmt.Sprintf("0x%02X", b)
	}
}

// FormatUpdates renders a batch of updates as an aligned table.
func FormatUpdates(updates []Update) string {
	if len(updates) == 0 {
		return "(no values)\n"
	}

	var sb strings.Builder
	for _, u := range updates {
		name := u.Name
		if name == "" {
			name = fmt.Sprintf("param 0x%02X", u.Index)
		}
		if u.Field != "" {
			name = name + "." + u.Field
		}
		fmt.Fprintf(&sb, "  0x%02X  %-28s %10.1f %-4s (raw %d)\n",
			u.Index, name, u.Value, u.Unit, u.Raw)
	}
	return sb.String()
}
