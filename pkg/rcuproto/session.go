// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package rcuproto

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MackanT/NibeTester/pkg/catalog"
	"github.com/MackanT/NibeTester/pkg/pending"
)

// Config carries the protocol constants and timeouts for one session.
// The defaults match the 360P pump family; alternate firmware revisions
// only need the fields they differ in changed.
type Config struct {
	StartByte     byte
	MasterAddress byte
	RCUAddress    byte

	Ack byte
	Enq byte
	Nak byte
	Etx byte

	// AddressingTimeout bounds the wait for the master to poll our
	// address. The master cycles through all device addresses, so this
	// is the longest timeout in the protocol.
	AddressingTimeout time.Duration

	// FrameTimeout bounds the wait for a data frame after we ACK the
	// addressing.
	FrameTimeout time.Duration

	// EtxTimeout bounds the wait for the cycle-closing ETX. A missing
	// ETX is tolerated; some firmware revisions skip it.
	EtxTimeout time.Duration

	// EnqAckTimeout bounds the wait for the master to ACK our ENQ when
	// opening a write.
	EnqAckTimeout time.Duration

	// WriteAckTimeout bounds the wait for the ACK/NAK verdict after the
	// write frame is sent.
	WriteAckTimeout time.Duration

	// ReadTimeout bounds a Read call's wait for the requested register
	// to show up in a broadcast cycle.
	ReadTimeout time.Duration

	Logger *zap.Logger
}

// DefaultConfig returns the 360P defaults.
func DefaultConfig() Config {
	return Config{
		StartByte:     StartByte,
		MasterAddress: MasterAddress,
		RCUAddress:    RCUAddress,

		Ack: ACK,
		Enq: ENQ,
		Nak: NAK,
		Etx: ETX,

		AddressingTimeout: 15 * time.Second,
		FrameTimeout:      2 * time.Second,
		EtxTimeout:        1 * time.Second,
		EnqAckTimeout:     2 * time.Second,
		WriteAckTimeout:   3 * time.Second,
		ReadTimeout:       30 * time.Second,

		Logger: zap.NewNop(),
	}
}

// Update is one observed register value, decoded against the catalog.
// For a register with bit-fields, one Update is emitted per field with
// Field set; otherwise Field is empty.
type Update struct {
	Index uint8
	Name  string
	Raw   int64
	Value float64
	Unit  string
	Field string
	When  time.Time
}

// String formats the update for display.
func (u Update) String() string {
	name := u.Name
	if name == "" {
		name = fmt.Sprintf("param 0x%02X", u.Index)
	}
	if u.Field != "" {
		return fmt.Sprintf("%s.%s = %.0f", name, u.Field, u.Value)
	}
	if u.Unit != "" {
		return fmt.Sprintf("%s = %.1f %s", name, u.Value, u.Unit)
	}
	return fmt.Sprintf("%s = %.1f", name, u.Value)
}

// Observer receives value updates as cycles decode them.
type Observer interface {
	OnUpdate(Update)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Update)

// OnUpdate calls f.
func (f ObserverFunc) OnUpdate(u Update) { f(u) }

// writeRequest is one queued register write, picked up by the next cycle.
type writeRequest struct {
	frame []byte
	done  chan error
}

// Session drives the link protocol over a Port: wait to be addressed,
// ACK, receive the data frame, ACK, consume the ETX — with an ENQ-opened
// write branch when a write is queued. One goroutine runs the cycles;
// Read, Write, Values and observers are safe to use from others.
type Session struct {
	cfg   Config
	port  Port
	cat   *catalog.Catalog
	stats *Statistics
	log   *zap.Logger

	recv    *Receiver
	tracker *pending.Tracker

	// inbuf queues bytes already read from the port but not yet
	// consumed by the state machine.
	inbuf []byte

	mu        sync.Mutex
	state     State
	values    map[uint8]Update
	observers []Observer
	writeReq  *writeRequest
}

// NewSession creates a session. cat may be nil for raw monitoring; stats
// may be nil.
func NewSession(port Port, cat *catalog.Catalog, cfg Config, stats *Statistics) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		cfg:     cfg,
		port:    port,
		cat:     cat,
		stats:   stats,
		log:     log,
		recv:    NewReceiver(stats),
		tracker: pending.NewTracker(),
		state:   StateIdle,
		values:  make(map[uint8]Update),
	}
}

// State returns the current link state. Safe to poll from any
// goroutine while cycles run.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Subscribe adds an observer for value updates.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Values returns the latest observed update per register, sorted by
// index.
func (s *Session) Values() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Update, 0, len(s.values))
	for _, u := range s.values {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Run executes cycles until the context is cancelled. Cycle errors are
// logged and the session re-arms; only transport failures and
// cancellation end the loop.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.RunCycle(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case errors.Is(err, ErrNoAddressing), errors.Is(err, ErrNoResponse):
			s.log.Debug("cycle timed out, re-arming", zap.Error(err))
		default:
			return err
		}
	}
}

// RunCycle performs one protocol cycle: wait for addressing, ACK,
// receive the data frame, ACK, consume the ETX. When a write is queued
// the cycle runs the ENQ branch instead and emits no updates. Every
// timeout returns the session to idle, so a failed cycle never poisons
// the next one.
func (s *Session) RunCycle(ctx context.Context) ([]Update, error) {
	defer s.setState(StateIdle)

	s.setState(StateWaitingForAddressing)
	if err := s.awaitAddressing(ctx); err != nil {
		return nil, err
	}
	s.setState(StateReadyToReceive)

	if req := s.takeWriteRequest(); req != nil {
		err := s.runWriteBranch(ctx, req)
		req.done <- err
		return nil, nil
	}

	if err := s.sendControl(s.cfg.Ack); err != nil {
		return nil, err
	}

	s.setState(StateAwaitingFrame)
	frame, err := s.awaitFrame(ctx)
	if err != nil {
		return nil, err
	}

	s.setState(StateProcessingFrame)
	updates := s.processFrame(frame)

	if err := s.sendControl(s.cfg.Ack); err != nil {
		return nil, err
	}

	s.setState(StateAwaitingEtx)
	if err := s.awaitControl(ctx, s.cfg.Etx, s.cfg.EtxTimeout); err != nil {
		// Tolerated: some firmware closes the cycle without ETX.
		s.log.Debug("no ETX received", zap.Error(err))
	}

	if s.stats != nil {
		s.stats.Cycle(len(updates) == 0)
	}
	return updates, nil
}

// Read queues nothing on the bus: the master broadcasts values on its
// own schedule, so Read just waits for the register's next appearance.
// A second concurrent Read for the same index fails with
// pending.ErrAlreadyPending. Cycles must be running for Read to ever
// return.
func (s *Session) Read(ctx context.Context, index uint8) (float64, error) {
	if s.cat != nil {
		if _, ok := s.cat.Lookup(uint16(index)); !ok {
			return 0, ErrUnknownRegister
		}
	}
	waiter, err := s.tracker.Register(uint16(index))
	if err != nil {
		return 0, err
	}
	return waiter.Await(ctx, s.cfg.ReadTimeout)
}

// Write queues a register write; the next cycle opens the ENQ branch
// and sends it. Blocks until the master's ACK/NAK verdict or the
// context ends. Only one write may be in flight at a time.
func (s *Session) Write(ctx context.Context, index uint8, value float64) error {
	if s.cat == nil {
		return ErrUnknownRegister
	}
	reg, ok := s.cat.Lookup(uint16(index))
	if !ok {
		return ErrUnknownRegister
	}
	if !reg.Writable {
		return ErrNotWritable
	}
	raw, err := reg.Encode(value)
	if err != nil {
		return err
	}

	payload := AppendParameter(nil, index, raw, reg.Width)
	req := &writeRequest{
		frame: EncodeDataFrame(s.cfg.RCUAddress, payload),
		done:  make(chan error, 1),
	}

	s.mu.Lock()
	if s.writeReq != nil {
		s.mu.Unlock()
		return pending.ErrAlreadyPending
	}
	s.writeReq = req
	s.mu.Unlock()

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		s.mu.Lock()
		if s.writeReq == req {
			s.writeReq = nil
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *Session) takeWriteRequest() *writeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.writeReq
	s.writeReq = nil
	return req
}

// runWriteBranch opens the write handshake in place of the normal ACK:
// ENQ, await ACK, send the frame, await the ACK/NAK verdict.
func (s *Session) runWriteBranch(ctx context.Context, req *writeRequest) error {
	if err := s.sendControl(s.cfg.Enq); err != nil {
		return err
	}
	s.setState(StateAwaitingEnqAck)

	if err := s.awaitControl(ctx, s.cfg.Ack, s.cfg.EnqAckTimeout); err != nil {
		s.log.Warn("master did not acknowledge ENQ", zap.Error(err))
		return ErrWriteFailed
	}

	if err := s.sendBytes(req.frame); err != nil {
		return err
	}
	s.setState(StateAwaitingAckNak)

	deadline := time.Now().Add(s.cfg.WriteAckTimeout)
	for {
		b, ok, err := s.nextByte(ctx, deadline)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWriteFailed
		}
		switch b {
		case s.cfg.Ack:
			return nil
		case s.cfg.Nak:
			return ErrWriteRejected
		}
	}
}

// awaitAddressing scans the byte stream for the [0x00, RCUAddress]
// sequence that means the master is polling us.
func (s *Session) awaitAddressing(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.AddressingTimeout)
	var prev byte = 0xFF
	for {
		b, ok, err := s.nextByte(ctx, deadline)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoAddressing
		}
		if prev == 0x00 && b == s.cfg.RCUAddress {
			return nil
		}
		prev = b
	}
}

// awaitFrame feeds bytes to the receiver until one valid frame decodes.
func (s *Session) awaitFrame(ctx context.Context) (*Frame, error) {
	deadline := time.Now().Add(s.cfg.FrameTimeout)
	for {
		b, ok, err := s.nextByte(ctx, deadline)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoResponse
		}
		frames := s.recv.Feed([]byte{b})
		if len(frames) > 0 {
			return frames[0], nil
		}
	}
}

// awaitControl waits for one specific control byte; anything else is
// discarded.
func (s *Session) awaitControl(ctx context.Context, want byte, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		b, ok, err := s.nextByte(ctx, deadline)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoResponse
		}
		if b == want {
			return nil
		}
	}
}

// DecodeUpdates decodes a frame's parameters against a catalog into
// display-ready updates. Registers with bit fields yield one update per
// field; everything else yields a single scaled value.
func DecodeUpdates(frame *Frame, cat *catalog.Catalog) []Update {
	params := DecodeParameters(frame.Payload(), cat)
	updates := make([]Update, 0, len(params))

	for _, p := range params {
		var reg *catalog.Register
		if cat != nil {
			reg, _ = cat.Lookup(uint16(p.Index))
		}

		if reg != nil && reg.HasBitFields() {
			for _, bf := range reg.BitFields {
				updates = append(updates, Update{
					Index: p.Index,
					Name:  reg.Name,
					Raw:   p.Raw,
					Value: float64(bf.Extract(p.Raw)),
					Field: bf.Name,
					When:  frame.Timestamp(),
				})
			}
			continue
		}

		u := Update{
			Index: p.Index,
			Raw:   p.Raw,
			Value: float64(p.Raw),
			When:  frame.Timestamp(),
		}
		if reg != nil {
			u.Name = reg.Name
			u.Unit = reg.Unit
			u.Value = reg.Decode(p.Raw)
		}
		updates = append(updates, u)
	}

	return updates
}

// processFrame decodes the frame's parameters, updates the value table,
// wakes pending readers and notifies observers.
func (s *Session) processFrame(frame *Frame) []Update {
	for _, verr := range ValidateFrame(frame) {
		s.log.Debug("frame anomaly", zap.String("anomaly", verr.Message))
	}

	params := DecodeParameters(frame.Payload(), s.cat)
	for _, p := range params {
		if s.stats != nil {
			s.stats.Update(p.Known)
		}
	}

	updates := DecodeUpdates(frame, s.cat)
	resolved := make(map[uint8]bool)
	for _, u := range updates {
		if resolved[u.Index] {
			continue
		}
		resolved[u.Index] = true
		if u.Field != "" {
			// Bit-field registers resolve pending reads with the raw value.
			s.tracker.Resolve(uint16(u.Index), float64(u.Raw))
		} else {
			s.tracker.Resolve(uint16(u.Index), u.Value)
		}
	}

	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	for _, u := range updates {
		// The value table keeps one entry per register; bit-field
		// updates collapse onto the register's raw value.
		if u.Field != "" {
			u.Field = ""
			u.Value = float64(u.Raw)
		}
		s.values[u.Index] = u
	}
	s.mu.Unlock()

	for _, o := range observers {
		for _, u := range updates {
			o.OnUpdate(u)
		}
	}

	s.log.Debug("frame processed",
		zap.Uint8("sender", frame.Sender()),
		zap.Int("parameters", len(params)))
	return updates
}

// sendControl transmits a single control byte with transmit parity.
func (s *Session) sendControl(b byte) error {
	return s.sendBytes([]byte{b})
}

func (s *Session) sendBytes(data []byte) error {
	if err := switchToTransmit(s.port); err != nil {
		return fmt.Errorf("switch to transmit parity: %w", err)
	}
	_, werr := s.port.Write(data)
	rerr := switchToReceive(s.port)
	if werr != nil {
		return fmt.Errorf("write to port: %w", werr)
	}
	if rerr != nil {
		return fmt.Errorf("switch to receive parity: %w", rerr)
	}
	return nil
}

// nextByte returns the next byte from the port, reading more when the
// local queue is empty. ok is false once the deadline passes with
// nothing available.
func (s *Session) nextByte(ctx context.Context, deadline time.Time) (byte, bool, error) {
	for {
		if len(s.inbuf) > 0 {
			b := s.inbuf[0]
			s.inbuf = s.inbuf[1:]
			return b, true, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		if !time.Now().Before(deadline) {
			return 0, false, nil
		}

		var scratch [64]byte
		n, err := s.port.Read(scratch[:])
		if err != nil {
			return 0, false, fmt.Errorf("read from port: %w", err)
		}
		if n > 0 {
			s.inbuf = append(s.inbuf, scratch[:n]...)
		}
	}
}
