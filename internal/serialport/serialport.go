// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport opens the GX3's serial link and lists the ports present
// on the host.
package serialport

import (
	"fmt"
	"io"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// Options describe the serial connection. Zero values take the GX3 defaults:
// 115200 baud, 8 data bits, no parity, 1 stop bit, no flow control.
type Options struct {
	PortName string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N, E or O
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.PortName == "" {
		return opts, fmt.Errorf("serial port name is required")
	}
	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity, err := NormalizeParity(opts.Parity)
	if err != nil {
		return opts, err
	}
	opts.Parity = parity
	return opts, nil
}

// NormalizeParity maps the accepted spellings of a parity setting to N, E or O.
func NormalizeParity(p string) (string, error) {
	switch strings.TrimSpace(strings.ToUpper(p)) {
	case "", "N", "NONE":
		return "N", nil
	case "E", "EVEN":
		return "E", nil
	case "O", "ODD":
		return "O", nil
	default:
		return "", fmt.Errorf("unsupported parity %q: expected N, E, or O", p)
	}
}

// OpenOptions converts the options into the structure go-serial expects.
// Reads block until at least one byte arrives; there is no read timeout.
func (o Options) OpenOptions() (serial.OpenOptions, error) {
	opts, err := o.Normalize()
	if err != nil {
		return serial.OpenOptions{}, err
	}

	oo := serial.OpenOptions{
		PortName:              opts.PortName,
		BaudRate:              uint(opts.BaudRate),
		DataBits:              uint(opts.DataBits),
		StopBits:              uint(opts.StopBits),
		MinimumReadSize:       1,
		InterCharacterTimeout: 0,
		RTSCTSFlowControl:     false,
	}
	switch opts.Parity {
	case "E":
		oo.ParityMode = serial.PARITY_EVEN
	case "O":
		oo.ParityMode = serial.PARITY_ODD
	default:
		oo.ParityMode = serial.PARITY_NONE
	}
	return oo, nil
}

// Open opens the serial port described by o.
func Open(o Options) (io.ReadWriteCloser, error) {
	oo, err := o.OpenOptions()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(oo)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", oo.PortName, err)
	}
	return port, nil
}

// Opener returns a function that opens o each time it is called, the shape
// the protocol engine uses to reopen the port.
func Opener(o Options) func() (io.ReadWriteCloser, error) {
	return func() (io.ReadWriteCloser, error) {
		return Open(o)
	}
}
