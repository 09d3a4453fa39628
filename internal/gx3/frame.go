// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import (
	"time"

	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/orientation"
)

const (
	// GravityConstant converts the accelerometer's g units to m/s².
	GravityConstant = 9.807

	// TickRate is the device timer frequency in ticks per second.
	TickRate = 62500

	tickDuration = time.Second / TickRate // 16µs, exact
)

// Byte offsets inside a 0xCC frame.
const (
	offAccel  = 1
	offAngle  = 13
	offMag    = 25
	offMatrix = 37
	offTimer  = 73
)

// Decoder turns validated frames into samples.
type Decoder struct {
	FrameID string
	Origin  time.Time     // host time at device tick 0
	Delay   time.Duration // subtracted from every stamp
}

// Decode extracts the fields of a checksum-validated frame. The header byte
// and the checksum are not looked at. Seq is left for the caller.
func (d Decoder) Decode(frame []byte) imu.Sample {
	_ = frame[FrameLength-1]

	accel := vector3(frame[offAccel:])
	ang := vector3(frame[offAngle:])
	mag := vector3(frame[offMag:])

	var m [9]float32
	for i := range m {
		m[i] = Float32BE(frame[offMatrix+4*i:])
	}

	ticks := Int32BE(frame[offTimer:])

	return imu.Sample{
		FrameID:     d.FrameID,
		Stamp:       d.Stamp(ticks),
		DeviceTicks: ticks,
		Elapsed:     float64(ticks) / TickRate,
		Acceleration: imu.Vector3{
			X: accel[0] * GravityConstant,
			Y: accel[1] * GravityConstant,
			Z: accel[2] * GravityConstant,
		},
		AngularVelocity: imu.Vector3{X: ang[0], Y: ang[1], Z: ang[2]},
		MagneticField:   imu.Vector3{X: mag[0], Y: mag[1], Z: mag[2]},
		Orientation:     orientation.FromMatrix(orientation.ColumnMajor(m)),
	}
}

// Stamp maps a device tick count to host time: origin + ticks/62500 s - delay.
func (d Decoder) Stamp(ticks int32) time.Time {
	return d.Origin.Add(time.Duration(ticks)*tickDuration - d.Delay)
}

func vector3(b []byte) [3]float64 {
	return [3]float64{
		float64(Float32BE(b[0:])),
		float64(Float32BE(b[4:])),
		float64(Float32BE(b[8:])),
	}
}

// FrameFields are the values carried by a 0xCC frame, before scaling.
type FrameFields struct {
	Accel  [3]float32 // g
	Angle  [3]float32 // rad/s
	Mag    [3]float32 // gauss
	Matrix [9]float32 // column-major
	Ticks  int32
}

// EncodeFrame builds a 0xCC frame with a valid checksum.
func EncodeFrame(f FrameFields) []byte {
	frame := make([]byte, FrameLength)
	frame[0] = PresetAccelAngMagOrient

	off := offAccel
	put := func(v float32) {
		putFloat32BE(frame[off:], v)
		off += 4
	}
	for _, v := range f.Accel {
		put(v)
	}
	for _, v := range f.Angle {
		put(v)
	}
	for _, v := range f.Mag {
		put(v)
	}
	for _, v := range f.Matrix {
		put(v)
	}
	putInt32BE(frame[offTimer:], f.Ticks)

	return SealChecksum(frame)
}
