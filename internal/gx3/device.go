// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSettle is how long the device is given to drain its output after a
// stop command, and the pause before the port is reopened.
const DefaultSettle = 100 * time.Millisecond

// Opener opens the byte channel to the device. It is called once at startup
// and once more if the mode query has to be retried on a fresh port.
type Opener func() (io.ReadWriteCloser, error)

// Options configure a Device.
type Options struct {
	FrameID string
	Delay   time.Duration // protocol delay subtracted from every stamp
	Settle  time.Duration
	Now     func() time.Time
}

// Stats counts frames seen by the stream loop.
type Stats struct {
	Frames  uint64 // complete frames read
	Emitted uint64 // samples handed to the sink
	Dropped uint64 // frames discarded on checksum mismatch
}

// Device owns the port for its whole lifetime. Handshake and Stream run on
// one goroutine; Shutdown may be called from another.
type Device struct {
	open Opener
	opts Options

	mu   sync.Mutex // guards port and serializes writes
	port io.ReadWriteCloser

	state State
	dec   Decoder

	reply [TimerReplyLen]byte
	frame [FrameLength]byte

	frames  atomic.Uint64
	emitted atomic.Uint64
	dropped atomic.Uint64
}

// New returns a Device that will reach the hardware through open.
func New(open Opener, opts Options) *Device {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Device{open: open, opts: opts}
}

// Open opens the port if it is not open yet.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return nil
	}
	port, err := d.open()
	if err != nil {
		return fmt.Errorf("gx3: open port: %w", err)
	}
	d.port = port
	return nil
}

// State returns the configuration negotiated by Handshake.
func (d *Device) State() State {
	return d.state
}

// Stats returns the stream counters.
func (d *Device) Stats() Stats {
	return Stats{
		Frames:  d.frames.Load(),
		Emitted: d.emitted.Load(),
		Dropped: d.dropped.Load(),
	}
}

// Shutdown stops continuous output, waits for the device to settle and
// closes the port. A Stream blocked in a read returns once the port closes.
// Calling it again is a no-op.
func (d *Device) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}

	var errs []error
	if err := writeAll(d.port, cmdStop); err != nil {
		errs = append(errs, fmt.Errorf("gx3: stop streaming: %w", err))
	} else {
		log.Warnln("gx3: stop imu streaming")
	}
	d.settle()

	if err := d.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gx3: close port: %w", err))
	}
	d.port = nil
	log.Infoln("gx3: serial port closed")

	return errors.Join(errs...)
}

func (d *Device) settle() {
	if d.opts.Settle > 0 {
		time.Sleep(d.opts.Settle)
	}
}

// closePort closes the port without sending anything.
func (d *Device) closePort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return
	}
	if err := d.port.Close(); err != nil {
		log.Warnf("gx3: close port: %v", err)
	}
	d.port = nil
}

func (d *Device) currentPort() (io.ReadWriteCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil, ErrNotOpen
	}
	return d.port, nil
}

// write sends b in full.
func (d *Device) write(b []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return ErrNotOpen
	}
	return writeAll(d.port, b)
}

// readFull blocks until buf is filled. It does not hold the lock, so
// Shutdown can close the port underneath it.
func (d *Device) readFull(buf []byte) error {
	port, err := d.currentPort()
	if err != nil {
		return err
	}
	if _, err := io.ReadFull(port, buf); err != nil {
		return transportError("read", err)
	}
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return transportError("write", err)
	}
	if n != len(b) {
		return transportError("write", io.ErrShortWrite)
	}
	return nil
}

// transportError classifies I/O failures. A port that reached EOF or was
// closed is reported as ErrTransportClosed.
func transportError(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("gx3: %s: %w: %w", op, ErrTransportClosed, err)
	}
	return fmt.Errorf("gx3: %s: %w", op, err)
}
