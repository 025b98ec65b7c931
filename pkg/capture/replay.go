// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package capture

import "io"

// ReplayPort plays a capture's inbound traffic back through the Port
// interface the protocol packages consume. Reads return one recorded
// chunk at a time; writes are swallowed, since there is no pump on the
// other end.
type ReplayPort struct {
	r       *Reader
	pending []byte
	done    bool
}

// NewReplayPort creates a replay port over a capture reader.
func NewReplayPort(r *Reader) *ReplayPort {
	return &ReplayPort{r: r}
}

// Read returns the next recorded inbound chunk, io.EOF after the last.
func (p *ReplayPort) Read(buf []byte) (int, error) {
	for len(p.pending) == 0 {
		if p.done {
			return 0, io.EOF
		}
		rec, err := p.r.Next()
		if err == io.EOF {
			p.done = true
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
		if rec.Dir == Inbound {
			p.pending = rec.Data
		}
	}

	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write discards data, reporting full success.
func (p *ReplayPort) Write(data []byte) (int, error) {
	return len(data), nil
}

// RecordingPort wraps a live port and copies all traffic to a capture
// writer.
type RecordingPort struct {
	port io.ReadWriter
	w    *Writer
}

// NewRecordingPort wraps port so every read and write lands in w too.
func NewRecordingPort(port io.ReadWriter, w *Writer) *RecordingPort {
	return &RecordingPort{port: port, w: w}
}

// Read passes through to the wrapped port, recording what arrived.
func (p *RecordingPort) Read(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if n > 0 {
		if werr := p.w.Record(Inbound, buf[:n]); werr != nil && err == nil {
			err = werr
		}
	}
	return n, err
}

// Write passes through to the wrapped port, recording what was sent.
func (p *RecordingPort) Write(data []byte) (int, error) {
	n, err := p.port.Write(data)
	if n > 0 {
		if werr := p.w.Record(Outbound, data[:n]); werr != nil && err == nil {
			err = werr
		}
	}
	return n, err
}
