// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MackanT/NibeTester/pkg/modbus40"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <register>",
	Short: "Read one register over the MODBUS 40 protocol",
	Long: `Request a single register from the pump and print its decoded value.

Register numbers are the five-digit MODBUS 40 identifiers, e.g. 40004 for
the outdoor temperature.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	register, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid register %q: %v", args[0], err)
	}

	conn, _, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cat, err := loadCatalogModbus()
	if err != nil {
		return err
	}

	cfg := modbus40.DefaultConfig()
	cfg.Logger = newLogger()
	client := modbus40.NewClient(conn, cat, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	value, err := client.ReadRegister(ctx, uint16(register))
	if err != nil {
		return fmt.Errorf("reading register %d: %w", register, err)
	}

	if reg, ok := cat.Lookup(uint16(register)); ok {
		fmt.Printf("%s (%d): %.1f %s\n", reg.Name, register, value, reg.Unit)
	} else {
		fmt.Printf("register %d: %.1f\n", register, value)
	}
	return nil
}
