// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT
//
// NibeTester - Nibe Heat Pump Serial Protocol Analyzer
//
// A CLI tool for monitoring, decoding and talking to Nibe heat pumps
// over their RS-485 service bus, supporting both the 360P RCU dialect
// and the MODBUS 40 accessory dialect.

package main

import (
	"os"

	"github.com/MackanT/NibeTester/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
