// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package modbus40

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// duplexPort feeds scripted inbound chunks to the client's Run loop and
// records everything the client writes.
type duplexPort struct {
	rx chan []byte

	mu     sync.Mutex
	writes [][]byte
}

func newDuplexPort() *duplexPort {
	return &duplexPort{rx: make(chan []byte, 16)}
}

func (p *duplexPort) Read(buf []byte) (int, error) {
	chunk, ok := <-p.rx
	if !ok {
		// Emulate a quiet line after the script ends.
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	return copy(buf, chunk), nil
}

func (p *duplexPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	p.writes = append(p.writes, cp)
	return len(data), nil
}

func (p *duplexPort) written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

func (p *duplexPort) waitForWrite(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if writes := p.written(); len(writes) >= n {
			return writes
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes, have %v", n, p.written())
	return nil
}

func startClient(t *testing.T, port *duplexPort) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ReadTimeout = 500 * time.Millisecond
	cfg.WriteTimeout = 500 * time.Millisecond

	c := NewClient(port, testCatalog(t), cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(ctx) }()
	return c
}

func TestClientAcksDataMessage(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	var got []Update
	var mu sync.Mutex
	c.Subscribe(ObserverFunc(func(u Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	}))

	data := []byte{0x44, 0x9C, 0xEB, 0x00} // 40004 = 235
	port.rx <- EncodeMessage(CmdDataMessage, data)

	writes := port.waitForWrite(t, 1)
	if !bytes.Equal(writes[0], []byte{ACK}) {
		t.Errorf("first write = % X, want ACK", writes[0])
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || !time.Now().Before(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d updates, want 1", len(got))
	}
	if got[0].Register != 40004 || got[0].Value != 23.5 {
		t.Errorf("update = %+v, want 40004 = 23.5", got[0])
	}
}

func TestClientAcksAnnouncement(t *testing.T) {
	port := newDuplexPort()
	startClient(t, port)

	port.rx <- EncodeMessage(CmdAnnouncement, []byte{0x01})
	writes := port.waitForWrite(t, 1)
	if !bytes.Equal(writes[0], []byte{ACK}) {
		t.Errorf("write = % X, want ACK", writes[0])
	}
}

func TestClientReadRegister(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	go func() {
		// Answer once the request shows up on the wire.
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			for _, w := range port.written() {
				if bytes.Equal(w, readRequest40004) {
					port.rx <- EncodeMessage(CmdReadResponse,
						[]byte{0x44, 0x9C, 0xEB, 0x00})
					return
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	value, err := c.ReadRegister(context.Background(), 40004)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if value != 23.5 {
		t.Errorf("value = %v, want 23.5", value)
	}
}

func TestClientReadTimeout(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	_, err := c.ReadRegister(context.Background(), 40004)
	if err == nil {
		t.Fatal("ReadRegister succeeded with no response")
	}

	// The register must be free for a retry.
	go func() {
		time.Sleep(10 * time.Millisecond)
		port.rx <- EncodeMessage(CmdReadResponse, []byte{0x44, 0x9C, 0x01, 0x00})
	}()
	if _, err := c.ReadRegister(context.Background(), 40004); err != nil {
		t.Errorf("retry after timeout: %v", err)
	}
}

// respondToWrite waits for the first outbound write and then queues a
// verdict message.
func respondToWrite(port *duplexPort, verdict byte) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(port.written()) > 0 {
			port.rx <- EncodeMessage(CmdWriteResponse, []byte{verdict})
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClientWriteRegister(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	go respondToWrite(port, WriteAccepted)

	if err := c.WriteRegister(context.Background(), 47011, -3); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}

	writes := port.written()
	want, _ := EncodeWriteRequest(47011, -3, 1)
	if !bytes.Equal(writes[0], want) {
		t.Errorf("request = % X, want % X", writes[0], want)
	}
}

func TestClientWriteRejected(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	go respondToWrite(port, 0x00)

	err := c.WriteRegister(context.Background(), 47011, -3)
	if !errors.Is(err, ErrWriteRejected) {
		t.Errorf("err = %v, want ErrWriteRejected", err)
	}
}

func TestClientWriteGuards(t *testing.T) {
	port := newDuplexPort()
	c := startClient(t, port)

	if err := c.WriteRegister(context.Background(), 65000, 1); !errors.Is(err, ErrUnknownRegister) {
		t.Errorf("unknown register err = %v", err)
	}
	if err := c.WriteRegister(context.Background(), 40004, 1); !errors.Is(err, ErrNotWritable) {
		t.Errorf("read-only register err = %v", err)
	}
	if err := c.WriteRegister(context.Background(), 47011, 99); err == nil {
		t.Error("out-of-range write accepted")
	}
}
