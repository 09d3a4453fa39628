// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gx3sim simulates a 3DM-GX3-25 on the other end of the serial link.
// It answers the handshake commands and, once in continuous mode, streams
// 0xCC frames whose orientation follows orientation.MockPoseAt.
package gx3sim

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/relabs-tech/gx3_bridge/internal/gx3"
	"github.com/relabs-tech/gx3_bridge/internal/orientation"
)

// Config tunes the simulated device.
type Config struct {
	// Rate is the output rate in frames per second of device time. Default 100.
	Rate int

	// Pace makes reads wait one period of wall time per frame.
	Pace bool

	// CorruptEvery damages the checksum of every Nth frame. Zero disables it.
	CorruptEvery int

	// CorruptFirstModeReply damages the first reply to a mode query.
	CorruptFirstModeReply bool

	// InitialMode is the mode the device powers up in. Default active.
	InitialMode byte
}

// Device is a simulated GX3. It implements io.ReadWriteCloser.
type Device struct {
	mu   sync.Mutex
	cond *sync.Cond
	cfg  Config

	in  []byte
	out bytes.Buffer

	mode        byte
	preset      byte
	ticks       int32
	frames      int
	modeReplies int
	closed      bool
	opens       int
}

// New returns a powered-up, unopened device.
func New(cfg Config) *Device {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.InitialMode == 0 {
		cfg.InitialMode = gx3.ModeActive
	}
	d := &Device{cfg: cfg, mode: cfg.InitialMode, closed: true}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Open reopens the link: buffered bytes in both directions are lost, the
// device keeps its mode and timer.
func (d *Device) Open() (io.ReadWriteCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = false
	d.in = d.in[:0]
	d.out.Reset()
	d.opens++
	return d, nil
}

// Opens returns how many times the link was opened.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Mode returns the current device mode.
func (d *Device) Mode() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Close closes the link and wakes a blocked reader.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.cond.Broadcast()
	return nil
}

// Write feeds command bytes to the device.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, os.ErrClosed
	}
	d.in = append(d.in, p...)
	d.parse()
	d.cond.Broadcast()
	return len(p), nil
}

// Read returns pending replies, or the next frame when streaming. It blocks
// while the device has nothing to say.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		if d.closed {
			return 0, os.ErrClosed
		}
		if d.out.Len() > 0 {
			return d.out.Read(p)
		}
		if d.mode == gx3.ModeContinuous {
			if d.cfg.Pace {
				d.mu.Unlock()
				time.Sleep(time.Second / time.Duration(d.cfg.Rate))
				d.mu.Lock()
				if d.closed || d.mode != gx3.ModeContinuous || d.out.Len() > 0 {
					continue
				}
			}
			d.out.Write(d.nextFrame())
			continue
		}
		d.cond.Wait()
	}
}

// parse consumes every complete command in d.in.
func (d *Device) parse() {
	for len(d.in) > 0 {
		var n int
		switch d.in[0] {
		case gx3.CmdStopByte:
			n = gx3.StopCmdLength
		case gx3.CmdModeByte, gx3.CmdPresetByte:
			n = gx3.ModeCmdLength
		case gx3.CmdTimerByte:
			n = gx3.TimerCmdLength
		default:
			d.in = d.in[1:]
			continue
		}
		if len(d.in) < n {
			return
		}
		d.handle(d.in[:n])
		d.in = d.in[n:]
	}
}

func (d *Device) handle(cmd []byte) {
	switch cmd[0] {
	case gx3.CmdStopByte:
		if d.mode == gx3.ModeContinuous {
			d.mode = gx3.ModeActive
		}
		d.out.Reset()

	case gx3.CmdModeByte:
		if sel := cmd[3]; sel != gx3.ModeRead {
			d.mode = sel
		}
		reply := gx3.SealChecksum([]byte{gx3.CmdModeByte, d.mode, 0, 0})
		if d.cfg.CorruptFirstModeReply && d.modeReplies == 0 {
			reply[3] ^= 0xFF
		}
		d.modeReplies++
		d.out.Write(reply)

	case gx3.CmdPresetByte:
		d.preset = cmd[3]
		d.out.Write(gx3.SealChecksum([]byte{gx3.CmdPresetByte, d.preset, 0, 0}))

	case gx3.CmdTimerByte:
		if cmd[3] == 0x01 {
			d.ticks = int32(binary.BigEndian.Uint32(cmd[4:8]))
		}
		reply := make([]byte, gx3.TimerReplyLen)
		reply[0] = gx3.CmdTimerByte
		binary.BigEndian.PutUint32(reply[1:5], uint32(d.ticks))
		d.out.Write(gx3.SealChecksum(reply))
	}
}

// nextFrame renders the frame for the current timer value and advances it.
func (d *Device) nextFrame() []byte {
	elapsed := float64(d.ticks) / gx3.TickRate
	m := orientation.FromPose(orientation.MockPoseAt(elapsed))
	body := m.Transpose()

	gravity := body.MulVec([3]float64{0, 0, 1})    // g
	field := body.MulVec([3]float64{0.2, 0, 0.43}) // gauss

	rates := mockRates(elapsed)

	frame := gx3.EncodeFrame(gx3.FrameFields{
		Accel:  f32(gravity),
		Angle:  f32(rates),
		Mag:    f32(field),
		Matrix: m.ColumnMajorValues(),
		Ticks:  d.ticks,
	})

	d.frames++
	if d.cfg.CorruptEvery > 0 && d.frames%d.cfg.CorruptEvery == 0 {
		frame[gx3.FrameLength-1] ^= 0x5A
	}
	d.ticks += int32(gx3.TickRate / d.cfg.Rate)
	return frame
}

// mockRates differentiates MockPoseAt, in rad/s.
func mockRates(t float64) [3]float64 {
	const deg = math.Pi / 180
	return [3]float64{
		20 * math.Cos(t) * deg,
		-15 * 0.7 * math.Sin(0.7*t) * deg,
		30 * deg,
	}
}

func f32(v [3]float64) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
