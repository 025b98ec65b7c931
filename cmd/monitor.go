// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/MackanT/NibeTester/pkg/capture"
	"github.com/MackanT/NibeTester/pkg/rcuproto"
	"github.com/spf13/cobra"
)

var (
	monitorCaptureFile string
	monitorStatsEvery  int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode 360P bus traffic",
	Long: `Continuously decode and display 360P frames as they arrive, without
emulating an RCU. Nothing is transmitted, so this is safe to run alongside
a real room unit.

Control bytes and addressing traffic are skipped silently; data frames are
shown with their decoded parameters. With --capture, all raw inbound bytes
are also written to a CBOR capture file for later replay.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorCaptureFile, "capture", "", "Also record raw traffic to this capture file")
	monitorCmd.Flags().IntVar(&monitorStatsEvery, "stats-interval", 0, "Print statistics every N frames (0 = never)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cat, err := loadCatalog360()
	if err != nil {
		return err
	}

	var source io.Reader = conn
	if monitorCaptureFile != "" {
		writer, closer, err := capture.CreateFile(monitorCaptureFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		source = capture.NewRecordingPort(conn, writer)
	}

	fmt.Printf("NibeTester - 360P Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := rcuproto.NewStatistics()
	recv := rcuproto.NewReceiver(stats)
	buf := make([]byte, 256)

	for {
		n, err := source.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for _, frame := range recv.Feed(buf[:n]) {
			fmt.Println(rcuproto.FormatFrame(frame))
			for _, p := range rcuproto.DecodeParameters(frame.Payload(), cat) {
				stats.Update(p.Known)
			}
			fmt.Print(rcuproto.FormatUpdates(rcuproto.DecodeUpdates(frame, cat)))

			if monitorStatsEvery > 0 {
				snap := stats.Snapshot()
				if snap.FramesValid%uint64(monitorStatsEvery) == 0 {
					fmt.Print(snap.String())
				}
			}
		}
	}
}
