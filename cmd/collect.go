// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MackanT/NibeTester/pkg/rcuproto"
	"github.com/spf13/cobra"
)

var (
	collectQuietCycles int
	collectBudget      time.Duration
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Actively collect all 360P parameters",
	Long: `Emulate an RCU room unit and run read cycles until the pump's broadcast
rotation is exhausted: the run stops once several consecutive cycles bring
no previously-unseen parameter, or the time budget runs out.

Requires a serial adapter that supports MARK/SPACE parity; WebSocket
bridges work if the far end handles the 9-bit framing.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().IntVar(&collectQuietCycles, "quiet-cycles", 3, "Stop after this many cycles with no new parameters")
	collectCmd.Flags().DurationVar(&collectBudget, "budget", 2*time.Minute, "Wall-clock limit for the whole run (0 = unlimited)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cat, err := loadCatalog360()
	if err != nil {
		return err
	}

	fmt.Printf("NibeTester - 360P Bulk Collection\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	cfg := rcuproto.DefaultConfig()
	cfg.Logger = newLogger()
	stats := rcuproto.NewStatistics()
	session := rcuproto.NewSession(conn, cat, cfg, stats)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := session.Collect(ctx, rcuproto.CollectOptions{
		MaxQuietCycles: collectQuietCycles,
		Budget:         collectBudget,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Collected %d parameters in %d cycles (%s)\n",
		len(result.Values), result.Cycles, result.Duration.Round(time.Second))
	if !result.Complete {
		fmt.Printf("Run ended before the rotation was exhausted.\n")
	}
	fmt.Print(rcuproto.FormatUpdates(result.Values))

	snap := stats.Snapshot()
	fmt.Print(snap.String())
	return nil
}
