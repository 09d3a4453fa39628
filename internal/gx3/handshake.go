// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Step is a state of the startup handshake.
type Step int

const (
	StepStopStreaming Step = iota
	StepQueryMode
	StepEnsureActive
	StepSelectPreset
	StepEnableContinuous
	StepResetTimer
	StepDone
)

var stepNames = [...]string{
	StepStopStreaming:    "stop streaming",
	StepQueryMode:        "query mode",
	StepEnsureActive:     "set mode to active",
	StepSelectPreset:     "set continuous mode preset",
	StepEnableContinuous: "set mode to continuous output",
	StepResetTimer:       "reset timer",
	StepDone:             "done",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// State is what the handshake negotiated. It does not change once streaming
// starts.
type State struct {
	Mode      byte      // mode reported by the query, before any change
	Preset    byte      // continuous preset selected
	Streaming bool      // device left in continuous output
	Reopened  bool      // the mode query needed a fresh port
	Origin    time.Time // host time at device tick 0
}

// Handshake runs the startup sequence once: stop any running stream, make
// sure the device is active, select the 0xCC preset, switch to continuous
// output and reset the device timer. The port is opened if needed.
//
// A checksum failure on the mode query closes and reopens the port and asks
// again; every other failure is fatal. On failure the port is closed.
//
// Cancelling ctx shuts the device down like Stream does: the stop command is
// sent and the port closed, which fails the pending read. The returned error
// then wraps ctx.Err().
func (d *Device) Handshake(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, fmt.Errorf("gx3: handshake cancelled: %w", err)
	}
	if err := d.Open(); err != nil {
		return State{}, &HandshakeError{Step: StepStopStreaming, Err: err}
	}

	stop := context.AfterFunc(ctx, func() {
		if err := d.Shutdown(); err != nil {
			log.Warnf("gx3: shutdown: %v", err)
		}
	})
	st, err := d.handshake(ctx)
	stop()

	if cerr := ctx.Err(); cerr != nil {
		if err == nil {
			err = errors.New("completed after cancellation")
		}
		err = fmt.Errorf("gx3: handshake cancelled: %w", errors.Join(cerr, err))
		log.Warnf("%v", err)
		if serr := d.Shutdown(); serr != nil {
			log.Warnf("gx3: shutdown: %v", serr)
		}
		return State{}, err
	}
	if err != nil {
		log.Errorf("gx3: %v", err)
		d.closePort()
		return State{}, err
	}

	d.state = st
	d.dec = Decoder{
		FrameID: d.opts.FrameID,
		Origin:  st.Origin,
		Delay:   d.opts.Delay,
	}
	log.Infof("gx3: handshake complete (mode 0x%02X, preset 0x%02X, origin %s)",
		st.Mode, st.Preset, st.Origin.Format(time.RFC3339Nano))
	return st, nil
}

func (d *Device) handshake(ctx context.Context) (State, error) {
	var st State

	if err := d.write(cmdStop); err != nil {
		return st, &HandshakeError{Step: StepStopStreaming, Err: err}
	}
	log.Infof("gx3: stop command sent, waiting %s", d.opts.Settle)
	d.settle()

	reply, err := d.exchange(StepQueryMode, modeCmd(ModeRead))
	if errors.Is(err, ErrChecksum) {
		log.Warnf("gx3: failed to get mode (%v), reopening port", err)
		st.Reopened = true
		d.closePort()
		d.settle()
		if err := d.Open(); err != nil {
			return st, &HandshakeError{Step: StepQueryMode, Err: err}
		}
		// A cancel that raced the reopen found no port to close.
		if err := ctx.Err(); err != nil {
			return st, &HandshakeError{Step: StepQueryMode, Err: err}
		}
		reply, err = d.exchange(StepQueryMode, modeCmd(ModeRead))
	}
	if err != nil {
		return st, &HandshakeError{Step: StepQueryMode, Err: err}
	}
	st.Mode = reply[1]
	log.Infof("gx3: device mode 0x%02X", st.Mode)

	if st.Mode != ModeActive {
		if _, err := d.exchange(StepEnsureActive, modeCmd(ModeActive)); err != nil {
			return st, &HandshakeError{Step: StepEnsureActive, Err: err}
		}
		log.Infoln("gx3: mode set to active")
	}

	if _, err := d.exchange(StepSelectPreset, cmdPreset); err != nil {
		return st, &HandshakeError{Step: StepSelectPreset, Err: err}
	}
	st.Preset = PresetAccelAngMagOrient

	if _, err := d.exchange(StepEnableContinuous, modeCmd(ModeContinuous)); err != nil {
		return st, &HandshakeError{Step: StepEnableContinuous, Err: err}
	}
	st.Streaming = true

	// The timer reply has its own layout and is not checksummed here.
	if err := d.write(cmdSetTimer); err != nil {
		return st, &HandshakeError{Step: StepResetTimer, Err: err}
	}
	if err := d.readFull(d.reply[:TimerReplyLen]); err != nil {
		return st, &HandshakeError{Step: StepResetTimer, Err: err}
	}
	st.Origin = d.opts.Now()

	return st, nil
}

// exchange sends a command and reads its 4-byte checksummed reply.
func (d *Device) exchange(step Step, cmd []byte) ([]byte, error) {
	if err := d.write(cmd); err != nil {
		return nil, err
	}
	reply := d.reply[:ReplyLength]
	if err := d.readFull(reply); err != nil {
		return nil, err
	}
	if err := checkReply(step.String(), reply); err != nil {
		return nil, err
	}
	return reply, nil
}
