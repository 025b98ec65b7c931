// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package catalog

func ptr(v float64) *float64 { return &v }

// RCU360P returns the built-in catalog for the Nibe 360P RCU dialect.
// Parameter indices are the single-byte indices the master packs into its
// broadcast data frames.
func RCU360P() *Catalog {
	return New([]Register{
		{Index: 0x00, Name: "CPU ID", Width: 1, Scale: 1},
		{Index: 0x01, Name: "Outdoor Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x02, Name: "Hot Water Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x03, Name: "Exhaust Air Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x04, Name: "Extract Air Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x05, Name: "Evaporator Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x06, Name: "Supply Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x07, Name: "Return Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x08, Name: "Compressor Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x09, Name: "Electric Heater Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 0x0A, Name: "Operating Status", Width: 1, Scale: 1, BitFields: []BitField{
			{Name: "compressor", Mask: 0x01, Labels: map[int]string{0: "off", 1: "on"}},
			{Name: "circulation_pump", Mask: 0x02, Labels: map[int]string{0: "off", 1: "on"}},
			{Name: "fan_speed", Mask: 0x0C},
			{Name: "electric_heater_steps", Mask: 0x70},
		}},
		{Index: 0x0B, Name: "Heat Curve Slope", Width: 1, Scale: 1, Writable: true,
			Min: ptr(1), Max: ptr(15)},
		{Index: 0x0C, Name: "Heat Curve Offset", Width: 1, Signed: true, Scale: 1, Unit: "°C",
			Writable: true, Min: ptr(-10), Max: ptr(10)},
	})
}

// Fighter360P returns the built-in catalog for the start/command/length
// dialect, with the MODBUS 40 style 16-bit register addresses.
func Fighter360P() *Catalog {
	return New([]Register{
		{Index: 40004, Name: "BT1 Outdoor Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 40008, Name: "BT2 Supply Temperature S1", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 40012, Name: "BT3 Return Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 40013, Name: "BT7 Hot Water Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 40014, Name: "BT6 Hot Water Load", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 40033, Name: "BT1 Average Outdoor Temperature", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 43005, Name: "Degree Minutes", Width: 2, Signed: true, Scale: 10, Unit: "DM"},
		{Index: 43009, Name: "Calculated Supply Temperature S1", Width: 2, Signed: true, Scale: 10, Unit: "°C"},
		{Index: 43081, Name: "Total Hot Water Operation Time", Width: 4, Signed: true, Scale: 10, Unit: "h"},
		{Index: 43136, Name: "Compressor Frequency", Width: 2, Signed: true, Scale: 10, Unit: "Hz"},
		{Index: 45001, Name: "Alarm Number", Width: 2, Signed: true, Scale: 1},
		{Index: 47011, Name: "Priority", Width: 1, Signed: true, Scale: 1, Writable: true},
		{Index: 47398, Name: "Temporary Lux", Width: 1, Signed: true, Scale: 1, Writable: true,
			Min: ptr(0), Max: ptr(1)},
	})
}
