// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package catalog

import "fmt"

// OutOfRangeError indicates that a physical value does not fit the
// register's declared width/sign or its configured min/max bounds.
type OutOfRangeError struct {
	Register uint16
	Value    float64
	Min      *float64
	Max      *float64
}

func (e *OutOfRangeError) Error() string {
	if e.Min != nil && e.Max != nil {
		return fmt.Sprintf("value %g out of range for register %d (valid %g to %g)",
			e.Value, e.Register, *e.Min, *e.Max)
	}
	return fmt.Sprintf("value %g out of range for register %d", e.Value, e.Register)
}
