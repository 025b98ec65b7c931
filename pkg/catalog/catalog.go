// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

// Package catalog holds the register definitions for Nibe heat pump
// parameters: how a raw protocol integer maps to a physical value.
//
// A catalog is loaded once at startup (from the built-in tables or a YAML
// file) and is read-only afterwards. Both protocol dialects share the same
// descriptor model; only the index width and byte order differ, which is
// handled by the protocol packages.
package catalog

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// BitField names a sub-range of bits inside one register's raw value.
// The shift is implied by the mask (number of trailing zero bits).
type BitField struct {
	Name   string
	Mask   uint8
	Labels map[int]string
}

// Shift returns the right-shift implied by the mask.
func (f BitField) Shift() uint {
	return uint(bits.TrailingZeros8(f.Mask))
}

// Extract returns the field value from a raw register value.
func (f BitField) Extract(raw int64) int {
	return int((uint8(raw) & f.Mask) >> f.Shift())
}

// Label returns the human-readable label for a field value, if one is
// defined.
func (f BitField) Label(value int) (string, bool) {
	label, ok := f.Labels[value]
	return label, ok
}

// Register describes one Nibe parameter: its numeric index, value width,
// sign, scale factor, and optional bit-field decomposition.
type Register struct {
	Index    uint16
	Name     string
	Width    int // value width in bytes: 1, 2 or 4
	Signed   bool
	Scale    float64 // raw value is divided by this; 0 treated as 1
	Unit     string
	Writable bool
	Min      *float64 // optional physical-value bounds for writes
	Max      *float64

	// BitFields, when non-empty, means the register is decoded by
	// mask/shift rather than scale.
	BitFields []BitField
}

// HasBitFields reports whether the register decodes into bit fields.
func (r *Register) HasBitFields() bool {
	return len(r.BitFields) > 0
}

func (r *Register) scale() float64 {
	if r.Scale == 0 {
		return 1
	}
	return r.Scale
}

// Decode converts a raw register value to its physical value.
func (r *Register) Decode(raw int64) float64 {
	return float64(raw) / r.scale()
}

// Encode converts a physical value back to the raw register value.
// Returns an OutOfRangeError if the result does not fit the register's
// declared width and sign, or violates the configured min/max bounds.
func (r *Register) Encode(physical float64) (int64, error) {
	if r.Min != nil && physical < *r.Min {
		return 0, &OutOfRangeError{Register: r.Index, Value: physical, Min: r.Min, Max: r.Max}
	}
	if r.Max != nil && physical > *r.Max {
		return 0, &OutOfRangeError{Register: r.Index, Value: physical, Min: r.Min, Max: r.Max}
	}

	raw := int64(math.Round(physical * r.scale()))

	lo, hi := r.rawBounds()
	if raw < lo || raw > hi {
		return 0, &OutOfRangeError{Register: r.Index, Value: physical, Min: r.Min, Max: r.Max}
	}
	return raw, nil
}

// rawBounds returns the inclusive raw-value range for the register's
// width and sign.
func (r *Register) rawBounds() (int64, int64) {
	bits := uint(r.Width) * 8
	if r.Signed {
		return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
	}
	return 0, int64(1)<<bits - 1
}

// Format renders a raw value with the register's scale and unit.
func (r *Register) Format(raw int64) string {
	if r.Unit == "" {
		return fmt.Sprintf("%.1f", r.Decode(raw))
	}
	return fmt.Sprintf("%.1f %s", r.Decode(raw), r.Unit)
}

// Catalog is an immutable lookup table of register descriptors.
type Catalog struct {
	byIndex map[uint16]*Register
}

// New builds a catalog from a list of register definitions. Duplicate
// indices keep the last definition.
func New(registers []Register) *Catalog {
	c := &Catalog{byIndex: make(map[uint16]*Register, len(registers))}
	for i := range registers {
		reg := registers[i]
		c.byIndex[reg.Index] = &reg
	}
	return c
}

// Lookup returns the descriptor for a register index.
func (c *Catalog) Lookup(index uint16) (*Register, bool) {
	reg, ok := c.byIndex[index]
	return reg, ok
}

// Indices returns all register indices in ascending order.
func (c *Catalog) Indices() []uint16 {
	indices := make([]uint16, 0, len(c.byIndex))
	for index := range c.byIndex {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

// Len returns the number of registers in the catalog.
func (c *Catalog) Len() int {
	return len(c.byIndex)
}
