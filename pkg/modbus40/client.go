// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MackanT/NibeTester/pkg/catalog"
	"github.com/MackanT/NibeTester/pkg/pending"
)

// Config carries the client timeouts.
type Config struct {
	// ReadTimeout bounds a ReadRegister call's wait for the response.
	ReadTimeout time.Duration

	// WriteTimeout bounds a WriteRegister call's wait for the verdict.
	WriteTimeout time.Duration

	Logger *zap.Logger
}

// DefaultConfig returns the accessory-protocol defaults.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
		Logger:       zap.NewNop(),
	}
}

// Update is one observed register value, decoded against the catalog.
type Update struct {
	Register uint16
	Name     string
	Raw      int64
	Value    float64
	Unit     string
	When     time.Time
}

// String formats the update for display.
func (u Update) String() string {
	name := u.Name
	if name == "" {
		name = fmt.Sprintf("register %d", u.Register)
	}
	if u.Unit != "" {
		return fmt.Sprintf("%s = %.1f %s", name, u.Value, u.Unit)
	}
	return fmt.Sprintf("%s = %.1f", name, u.Value)
}

// Observer receives value updates as messages decode.
type Observer interface {
	OnUpdate(Update)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Update)

// OnUpdate calls f.
func (f ObserverFunc) OnUpdate(u Update) { f(u) }

// Client speaks the accessory side of the protocol over a byte
// transport: it ACKs the pump's broadcasts, answers announcements, and
// correlates read/write requests with their responses. Run owns the
// byte stream; all other methods are safe from any goroutine.
type Client struct {
	cfg  Config
	port io.ReadWriter
	cat  *catalog.Catalog
	log  *zap.Logger

	recv    *Receiver
	tracker *pending.Tracker

	wmu sync.Mutex // serializes port writes (ACKs vs requests)

	mu        sync.Mutex
	values    map[uint16]Update
	observers []Observer
	writeCh   chan bool
	closed    bool
}

// NewClient creates a client. cat may be nil for raw monitoring, which
// disables WriteRegister and decodes all values as signed 16-bit.
func NewClient(port io.ReadWriter, cat *catalog.Catalog, cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		port:    port,
		cat:     cat,
		log:     log,
		recv:    NewReceiver(),
		tracker: pending.NewTracker(),
		values:  make(map[uint16]Update),
	}
}

// Subscribe adds an observer for value updates.
func (c *Client) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Values returns the latest observed update per register, sorted by
// register number.
func (c *Client) Values() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Update, 0, len(c.values))
	for _, u := range c.values {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Register < out[j].Register })
	return out
}

// Run reads the transport and dispatches messages until the context is
// cancelled or the transport fails. Pending requests are failed on exit.
func (c *Client) Run(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.tracker.Reset()
	}()

	scratch := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.port.Read(scratch)
		if err != nil {
			return fmt.Errorf("read from port: %w", err)
		}
		for _, msg := range c.recv.Feed(scratch[:n]) {
			c.handle(msg)
		}
	}
}

func (c *Client) handle(msg *Message) {
	switch msg.Command() {
	case CmdDataMessage:
		c.sendControl(ACK)
		for _, item := range DecodeDataMessage(msg.Data(), c.cat) {
			c.apply(item.Register, item.Raw, msg.Timestamp())
		}

	case CmdReadResponse:
		c.sendControl(ACK)
		register, ok := msg.Register()
		if !ok {
			c.log.Debug("read response without register")
			return
		}
		width, signed := 2, true
		if c.cat != nil {
			if reg, rok := c.cat.Lookup(register); rok {
				width, signed = reg.Width, reg.Signed
			}
		}
		raw, err := DecodeValue(msg.ValueBytes(), width, signed)
		if err != nil {
			c.log.Debug("undecodable read response",
				zap.Uint16("register", register), zap.Error(err))
			return
		}
		c.apply(register, raw, msg.Timestamp())

	case CmdWriteResponse:
		accepted := len(msg.Data()) > 0 && msg.Data()[0] == WriteAccepted
		c.mu.Lock()
		ch := c.writeCh
		c.mu.Unlock()
		if ch != nil {
			select {
			case ch <- accepted:
			default:
			}
		}

	case CmdAnnouncement:
		c.sendControl(ACK)

	default:
		c.log.Debug("ignoring message", zap.String("command", msg.Command().String()))
	}
}

// apply decodes a raw value against the catalog, stores it, resolves any
// pending read and notifies observers.
func (c *Client) apply(register uint16, raw int64, when time.Time) {
	u := Update{Register: register, Raw: raw, Value: float64(raw), When: when}
	if c.cat != nil {
		if reg, ok := c.cat.Lookup(register); ok {
			u.Name = reg.Name
			u.Unit = reg.Unit
			u.Value = reg.Decode(raw)
		}
	}

	c.mu.Lock()
	c.values[register] = u
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	c.tracker.Resolve(register, u.Value)
	for _, o := range observers {
		o.OnUpdate(u)
	}
}

// ReadRegister requests one register and waits for its value. A second
// concurrent read of the same register fails with
// pending.ErrAlreadyPending.
func (c *Client) ReadRegister(ctx context.Context, register uint16) (float64, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, ErrClientClosed
	}

	waiter, err := c.tracker.Register(register)
	if err != nil {
		return 0, err
	}
	if err := c.send(EncodeReadRequest(register)); err != nil {
		waiter.Cancel()
		return 0, err
	}
	return waiter.Await(ctx, c.cfg.ReadTimeout)
}

// WriteRegister sets one register to a physical value and waits for the
// pump's verdict. Only one write may be in flight at a time.
func (c *Client) WriteRegister(ctx context.Context, register uint16, value float64) error {
	if c.cat == nil {
		return ErrUnknownRegister
	}
	reg, ok := c.cat.Lookup(register)
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
	request, err := EncodeWriteRequest(register, raw, reg.Width)
	if err != nil {
		return err
	}

	ch := make(chan bool, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.writeCh != nil {
		c.mu.Unlock()
		return ErrWritePending
	}
	c.writeCh = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.writeCh = nil
		c.mu.Unlock()
	}()

	if err := c.send(request); err != nil {
		return err
	}

	timer := time.NewTimer(c.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case accepted := <-ch:
		if !accepted {
			return ErrWriteRejected
		}
		return nil
	case <-timer.C:
		return pending.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) sendControl(b byte) {
	if err := c.send([]byte{b}); err != nil {
		c.log.Warn("control byte send failed", zap.Error(err))
	}
}

func (c *Client) send(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.port.Write(data); err != nil {
		return fmt.Errorf("write to port: %w", err)
	}
	return nil
}
