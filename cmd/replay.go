// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"fmt"
	"io"

	"github.com/MackanT/NibeTester/pkg/capture"
	"github.com/MackanT/NibeTester/pkg/rcuproto"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a recorded capture file offline",
	Long: `Replay a CBOR capture file (recorded with 'monitor --capture') through
the 360P decoder, exactly as if the bytes were arriving live. No
connection flags are needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	reader, closer, err := capture.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer closer.Close()

	cat, err := loadCatalog360()
	if err != nil {
		return err
	}

	stats := rcuproto.NewStatistics()
	recv := rcuproto.NewReceiver(stats)
	port := capture.NewReplayPort(reader)
	buf := make([]byte, 256)

	for {
		n, err := port.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		for _, frame := range recv.Feed(buf[:n]) {
			fmt.Println(rcuproto.FormatFrame(frame))
			for _, p := range rcuproto.DecodeParameters(frame.Payload(), cat) {
				stats.Update(p.Known)
			}
			fmt.Print(rcuproto.FormatUpdates(rcuproto.DecodeUpdates(frame, cat)))
		}
	}

	snap := stats.Snapshot()
	fmt.Print(snap.String())
	return nil
}
