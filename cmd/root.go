// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Register catalog override
	catalogPath string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nibetester",
	Short: "Nibe Heat Pump Serial Protocol Analyzer",
	Long: `NibeTester - A CLI tool for monitoring and talking to Nibe heat pumps over RS-485.

Supports both wire dialects: the 360P RCU-simulation protocol (9-bit
MARK/SPACE addressing, monitor/collect/tui commands) and the MODBUS 40
accessory protocol (five-digit registers, read/write commands).

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the NIBE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 19200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&catalogPath, "registers", "", "YAML register catalog (default: built-in tables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds the process logger; debug level behind --verbose.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
