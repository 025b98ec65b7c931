// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

// Package pending correlates asynchronous register read requests with the
// responses that eventually arrive on the bus.
//
// At most one waiter may exist per register index at a time; a second
// concurrent request for the same index fails with ErrAlreadyPending
// rather than queuing. A timed-out waiter always removes its entry, so a
// late response is delivered to nobody and simply becomes an unsolicited
// value update.
package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyPending is returned when a waiter for the same register
	// index is already registered.
	ErrAlreadyPending = errors.New("request already pending for register")

	// ErrTimeout is returned when no response arrived within the
	// waiter's deadline.
	ErrTimeout = errors.New("timeout waiting for response")

	// ErrClosed is returned to waiters abandoned by a tracker reset,
	// typically on session teardown.
	ErrClosed = errors.New("request tracker closed")
)

// Tracker holds the in-flight read requests, keyed by register index.
type Tracker struct {
	mu      sync.Mutex
	waiters map[uint16]chan float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{waiters: make(map[uint16]chan float64)}
}

// Waiter is a handle for one outstanding read request.
type Waiter struct {
	index   uint16
	ch      chan float64
	tracker *Tracker
}

// Register creates a waiter for a register index. Fails with
// ErrAlreadyPending if a waiter for that index already exists.
func (t *Tracker) Register(index uint16) (*Waiter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.waiters[index]; exists {
		return nil, ErrAlreadyPending
	}

	ch := make(chan float64, 1)
	t.waiters[index] = ch
	return &Waiter{index: index, ch: ch, tracker: t}, nil
}

// Resolve delivers a value to the waiter for a register index, if one
// exists, and removes the entry. Reports whether a waiter was woken.
func (t *Tracker) Resolve(index uint16, value float64) bool {
	t.mu.Lock()
	ch, ok := t.waiters[index]
	if ok {
		delete(t.waiters, index)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	ch <- value // buffered, never blocks
	close(ch)
	return true
}

// Len returns the number of in-flight requests.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters)
}

// Reset abandons all in-flight requests; their waiters fail with
// ErrClosed.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for index, ch := range t.waiters {
		close(ch)
		delete(t.waiters, index)
	}
}

// remove drops the waiter's entry unless it was already resolved.
func (t *Tracker) remove(index uint16, ch chan float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.waiters[index]; ok && current == ch {
		delete(t.waiters, index)
	}
}

// Await blocks until the request is resolved, the timeout expires, or
// the context is cancelled. The entry is removed in every case.
func (w *Waiter) Await(ctx context.Context, timeout time.Duration) (float64, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value, ok := <-w.ch:
		if !ok {
			return 0, ErrClosed
		}
		return value, nil
	case <-timer.C:
		w.tracker.remove(w.index, w.ch)
		// A resolve may have raced the timer; prefer the value.
		select {
		case value, ok := <-w.ch:
			if ok {
				return value, nil
			}
		default:
		}
		return 0, ErrTimeout
	case <-ctx.Done():
		w.tracker.remove(w.index, w.ch)
		return 0, ctx.Err()
	}
}

// Cancel abandons the request without waiting.
func (w *Waiter) Cancel() {
	w.tracker.remove(w.index, w.ch)
}
