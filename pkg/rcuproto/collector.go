// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CollectOptions tunes a bulk collection run.
type CollectOptions struct {
	// MaxQuietCycles stops the run after this many consecutive cycles
	// produced no previously-unseen register index. Zero means the
	// default of 3.
	MaxQuietCycles int

	// Budget is the wall-clock limit for the whole run. Zero means no
	// limit; the quiet-cycle rule is then the only terminator.
	Budget time.Duration
}

// CollectResult summarizes a bulk collection run.
type CollectResult struct {
	// Values holds the latest update per register index seen during
	// the run, sorted by index.
	Values []Update

	Cycles   int
	Duration time.Duration

	// Complete is true when the run ended via the quiet-cycle rule,
	// meaning the master's broadcast rotation was likely exhausted.
	// False means the budget or context cut it short.
	Complete bool
}

// Collect runs cycles until MaxQuietCycles consecutive cycles add no new
// register index, or the budget expires. The master broadcasts different
// parameter subsets on different cycles, so a single cycle never shows
// the full register set.
func (s *Session) Collect(ctx context.Context, opts CollectOptions) (CollectResult, error) {
	quietLimit := opts.MaxQuietCycles
	if quietLimit <= 0 {
		quietLimit = 3
	}

	if opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Budget)
		defer cancel()
	}

	start := time.Now()
	seen := make(map[uint8]struct{})
	quiet := 0

	result := CollectResult{}
	for {
		updates, err := s.RunCycle(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			if errors.Is(err, ErrNoAddressing) || errors.Is(err, ErrNoResponse) {
				s.log.Debug("collection cycle timed out", zap.Error(err))
				continue
			}
			return result, err
		}
		result.Cycles++

		fresh := 0
		for _, u := range updates {
			if _, ok := seen[u.Index]; !ok {
				seen[u.Index] = struct{}{}
				fresh++
			}
		}
		if fresh == 0 {
			quiet++
		} else {
			quiet = 0
		}
		s.log.Debug("collection cycle complete",
			zap.Int("cycle", result.Cycles),
			zap.Int("new_indices", fresh),
			zap.Int("total_indices", len(seen)))

		if quiet >= quietLimit {
			result.Complete = true
			break
		}
	}

	result.Values = s.Values()
	result.Duration = time.Since(start)
	return result, nil
}
