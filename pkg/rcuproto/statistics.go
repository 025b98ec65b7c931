// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"fmt"
	"sync"
	"time"
)

// Statistics tracks bus health counters. Safe for concurrent use: the
// receive loop updates it while a UI reads snapshots.
type Statistics struct {
	mu        sync.Mutex
	startTime time.Time

	framesValid    uint64
	checksumErrors uint64
	bytesDiscarded uint64
	cycles         uint64
	emptyCycles    uint64
	updates        uint64
	unknownParams  uint64
}

// StatisticsSnapshot is a point-in-time copy of the counters with
// derived rates.
type StatisticsSnapshot struct {
	StartTime time.Time

	FramesValid    uint64
	ChecksumErrors uint64
	BytesDiscarded uint64
	Cycles         uint64
	EmptyCycles    uint64
	Updates        uint64
	UnknownParams  uint64

	FrameRate float64 // frames/sec
	ErrorRate float64 // checksum errors/sec
}

// NewStatistics creates a statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// FrameValid records a checksum-verified frame.
func (s *Statistics) FrameValid() {
	s.mu.Lock()
	s.framesValid++
	s.mu.Unlock()
}

// ChecksumError records a frame rejected for a checksum mismatch.
func (s *Statistics) ChecksumError() {
	s.mu.Lock()
	s.checksumErrors++
	s.mu.Unlock()
}

// ByteDiscarded records one byte dropped during resync.
func (s *Statistics) ByteDiscarded() {
	s.mu.Lock()
	s.bytesDiscarded++
	s.mu.Unlock()
}

// Cycle records one completed read cycle; empty means no parameters were
// decoded.
func (s *Statistics) Cycle(empty bool) {
	s.mu.Lock()
	s.cycles++
	if empty {
		s.emptyCycles++
	}
	s.mu.Unlock()
}

// Update records one parameter value observation.
func (s *Statistics) Update(known bool) {
	s.mu.Lock()
	s.updates++
	if !known {
		s.unknownParams++
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters with rates calculated.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatisticsSnapshot{
		StartTime:      s.startTime,
		FramesValid:    s.framesValid,
		ChecksumErrors: s.checksumErrors,
		BytesDiscarded: s.bytesDiscarded,
		Cycles:         s.cycles,
		EmptyCycles:    s.emptyCycles,
		Updates:        s.updates,
		UnknownParams:  s.unknownParams,
	}

	elapsed := time.Since(s.startTime).Seconds()
	if elapsed > 0 {
		snap.FrameRate = float64(s.framesValid) / elapsed
		snap.ErrorRate = float64(s.checksumErrors) / elapsed
	}
	return snap
}

// Reset clears all counters.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()
	s.framesValid = 0
	s.checksumErrors = 0
	s.bytesDiscarded = 0
	s.cycles = 0
	s.emptyCycles = 0
	s.updates = 0
	s.unknownParams = 0
}

// String returns a formatted statistics summary.
func (s *StatisticsSnapshot) String() string {
	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Valid Frames:    %8d\n", s.FramesValid)
	result += fmt.Sprintf("Value Updates:   %8d\n", s.Updates)
	if s.UnknownParams > 0 {
		result += fmt.Sprintf("Unknown Params:  %8d\n", s.UnknownParams)
	}
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d\n", s.ChecksumErrors)
	}
	if s.BytesDiscarded > 0 {
		result += fmt.Sprintf("Bytes Discarded: %8d\n", s.BytesDiscarded)
	}
	if s.Cycles > 0 {
		result += fmt.Sprintf("Read Cycles:     %8d (%d empty)\n", s.Cycles, s.EmptyCycles)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"
	return result
}
