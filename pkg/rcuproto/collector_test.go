// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"context"
	"testing"
	"time"
)

func cycleScript(frames ...[]byte) [][]byte {
	var script [][]byte
	for _, frame := range frames {
		script = append(script, []byte{0x00, RCUAddress}, frame, []byte{ETX})
	}
	return script
}

func TestCollectStopsAfterQuietCycles(t *testing.T) {
	frameA := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	frameB := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x02, 521, 2))

	// Two cycles with fresh indices, then the master repeats itself.
	port := &scriptPort{script: cycleScript(frameA, frameB, frameA, frameB, frameA)}

	s := NewSession(port, testCatalog(t), fastConfig(), NewStatistics())
	result, err := s.Collect(context.Background(), CollectOptions{MaxQuietCycles: 3})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if !result.Complete {
		t.Error("Complete = false, want true via quiet-cycle rule")
	}
	if result.Cycles != 5 {
		t.Errorf("Cycles = %d, want 5 (2 fresh + 3 quiet)", result.Cycles)
	}
	if len(result.Values) != 2 {
		t.Fatalf("got %d values, want 2", len(result.Values))
	}
	if result.Values[0].Value != 23.5 || result.Values[1].Value != 52.1 {
		t.Errorf("values = %+v", result.Values)
	}
}

func TestCollectBudgetCutsShort(t *testing.T) {
	frame := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))
	// One scripted cycle; the port then starves until the budget ends.
	port := &scriptPort{script: cycleScript(frame)}

	cfg := fastConfig()
	cfg.AddressingTimeout = time.Second

	s := NewSession(port, testCatalog(t), cfg, nil)
	start := time.Now()
	result, err := s.Collect(context.Background(), CollectOptions{
		MaxQuietCycles: 3,
		Budget:         150 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.Complete {
		t.Error("Complete = true, want false when the budget ends the run")
	}
	if len(result.Values) != 1 {
		t.Errorf("got %d values, want 1", len(result.Values))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("budget not honored, ran %v", elapsed)
	}
}

func TestCollectToleratesStrayAddressing(t *testing.T) {
	frameA := EncodeDataFrame(MasterAddress, AppendParameter(nil, 0x01, 235, 2))

	// A duplicate addressing poll before the first data frame: the
	// stray bytes are discarded as line noise and collection proceeds.
	script := [][]byte{{0x00, RCUAddress}}
	script = append(script, cycleScript(frameA, frameA, frameA, frameA)...)
	port := &scriptPort{script: script}

	s := NewSession(port, testCatalog(t), fastConfig(), nil)
	result, err := s.Collect(context.Background(), CollectOptions{MaxQuietCycles: 3})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !result.Complete {
		t.Error("Complete = false, want true")
	}
	if len(result.Values) != 1 {
		t.Errorf("got %d values, want 1", len(result.Values))
	}
}
