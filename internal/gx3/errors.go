// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportClosed is returned when the port closes before a whole
	// message has been read.
	ErrTransportClosed = errors.New("gx3: transport closed")

	// ErrChecksum matches every *ChecksumError.
	ErrChecksum = errors.New("gx3: checksum mismatch")

	// ErrNotOpen is returned by operations that need an open port.
	ErrNotOpen = errors.New("gx3: port not open")
)

// ChecksumError describes a message whose trailing checksum did not match.
type ChecksumError struct {
	Stage string
	Got   uint16 // computed over the message body
	Want  uint16 // carried in the last two bytes
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("gx3: %s: checksum mismatch: computed 0x%04X, message carries 0x%04X", e.Stage, e.Got, e.Want)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}

// HandshakeError names the handshake step that aborted startup.
type HandshakeError struct {
	Step Step
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("gx3 handshake: %s: %v", e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// checkReply validates msg and returns a *ChecksumError naming stage on mismatch.
func checkReply(stage string, msg []byte) error {
	got, want, ok := checksumPair(msg)
	if ok && got == want {
		return nil
	}
	return &ChecksumError{Stage: stage, Got: got, Want: want}
}
