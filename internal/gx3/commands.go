// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

// Message lengths on the wire.
const (
	StopCmdLength  = 3
	ModeCmdLength  = 4
	ReplyLength    = 4
	TimerCmdLength = 8
	TimerReplyLen  = 7
	FrameLength    = 79
)

// Device modes, as carried in the last byte of the mode command and in
// byte 1 of its reply.
const (
	ModeRead       byte = 0x00 // function selector: report the current mode
	ModeActive     byte = 0x01 // compared with reply[1]; reply[2] is the checksum high byte
	ModeContinuous byte = 0x02
)

// PresetAccelAngMagOrient is the 0xCC continuous preset: acceleration,
// angular rate, magnetic field and orientation matrix. Every frame it
// produces starts with this byte.
const PresetAccelAngMagOrient byte = 0xCC

var (
	cmdStop   = []byte{0xFA, 0x75, 0xB4}
	cmdPreset = []byte{0xD6, 0xC6, 0x6B, PresetAccelAngMagOrient}
	// Restart the time stamp at the new value, new value 0.
	cmdSetTimer = []byte{0xD7, 0xC1, 0x29, 0x01, 0x00, 0x00, 0x00, 0x00}
)

// Command bytes, exported for the simulator.
const (
	CmdStopByte   byte = 0xFA
	CmdModeByte   byte = 0xD4
	CmdPresetByte byte = 0xD6
	CmdTimerByte  byte = 0xD7
)

// modeCmd builds the mode command with the given function selector.
func modeCmd(mode byte) []byte {
	return []byte{CmdModeByte, 0xA3, 0x47, mode}
}
