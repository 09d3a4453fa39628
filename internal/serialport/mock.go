// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// FakePort is an in-memory port for tests. Reads drain ReadBuffer; writes
// are captured. With BlockReads set, a read on an empty buffer waits for
// AddReadData or Close instead of returning io.EOF.
type FakePort struct {
	mu       sync.Mutex
	readCond *sync.Cond

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer

	// BlockReads makes Read wait for data rather than report EOF.
	BlockReads bool

	// WriteError is returned by the next Write call if set.
	WriteError error

	// CloseError is returned by Close if set.
	CloseError error

	closed     bool
	writeCalls int
}

// NewFakePort returns a port whose reads will yield data.
func NewFakePort(data ...[]byte) *FakePort {
	p := &FakePort{}
	p.readCond = sync.NewCond(&p.mu)
	for _, d := range data {
		p.readBuf.Write(d)
	}
	return p
}

// Read reads from the read buffer.
func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.closed {
			return 0, os.ErrClosed
		}
		if p.readBuf.Len() > 0 || !p.BlockReads {
			break
		}
		p.readCond.Wait()
	}
	if p.readBuf.Len() == 0 {
		return 0, io.EOF
	}
	return p.readBuf.Read(b)
}

// Write captures b.
func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeCalls++
	if p.closed {
		return 0, os.ErrClosed
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}
	return p.writeBuf.Write(b)
}

// Close marks the port closed and wakes any blocked reader.
func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.readCond.Broadcast()
	return p.CloseError
}

// AddReadData queues data for subsequent reads.
func (p *FakePort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readBuf.Write(data)
	p.readCond.Broadcast()
}

// Written returns a copy of everything written so far.
func (p *FakePort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]byte(nil), p.writeBuf.Bytes()...)
}

// Closed reports whether Close was called.
func (p *FakePort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// WriteCalls returns the number of Write calls.
func (p *FakePort) WriteCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writeCalls
}

// FakeOpener hands out Ports in order, one per call, and records how many
// times it was called. Once they run out it returns Err, or io.ErrClosedPipe.
type FakeOpener struct {
	mu    sync.Mutex
	Ports []*FakePort
	Err   error
	calls int
}

// Open returns the next port.
func (o *FakeOpener) Open() (io.ReadWriteCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls++
	if len(o.Ports) == 0 {
		if o.Err != nil {
			return nil, o.Err
		}
		return nil, io.ErrClosedPipe
	}
	p := o.Ports[0]
	o.Ports = o.Ports[1:]
	return p, nil
}

// Calls returns the number of Open calls.
func (o *FakeOpener) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.calls
}
