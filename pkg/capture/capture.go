// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

// Package capture records raw bus traffic to CBOR-framed files and plays
// it back for offline decoding. A capture file is a plain concatenation
// of CBOR-encoded records, so it can be appended to and truncated safely.
package capture

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction tells which side of the link produced the bytes.
type Direction uint8

const (
	Inbound  Direction = 0 // read from the bus
	Outbound Direction = 1 // written by us
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "RX"
	case Outbound:
		return "TX"
	default:
		return "??"
	}
}

// Record is one chunk of bus traffic.
type Record struct {
	When time.Time `cbor:"1,keyasint"`
	Dir  Direction `cbor:"2,keyasint"`
	Data []byte    `cbor:"3,keyasint"`
}

// Writer appends records to a capture stream. Safe for concurrent use,
// so the read loop and the transmit path can share one writer.
type Writer struct {
	mu  sync.Mutex
	enc *cbor.Encoder
	n   int
}

// NewWriter creates a capture writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Record appends one traffic chunk with the current time. Empty chunks
// are skipped.
func (w *Writer) Record(dir Direction, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(Record{When: time.Now(), Dir: dir, Data: cp}); err != nil {
		return fmt.Errorf("encoding capture record: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Reader decodes records from a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a capture reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decoding capture record: %w", err)
	}
	return &rec, nil
}

// OpenFile opens a capture file for reading.
func OpenFile(path string) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening capture file: %w", err)
	}
	return NewReader(f), f, nil
}

// CreateFile creates (or truncates) a capture file for writing.
func CreateFile(path string) (*Writer, io.Closer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating capture file: %w", err)
	}
	return NewWriter(f), f, nil
}
