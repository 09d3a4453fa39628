// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gx3 talks to a Microstrain 3DM-GX3-25 over its single byte
// protocol: it negotiates continuous output, validates every frame and
// turns the 0xCC preset into calibrated samples.
package gx3

import (
	"encoding/binary"
	"math"
)

// Float32BE reads a big-endian IEEE-754 single from the first four bytes of b.
func Float32BE(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// Int32BE reads a big-endian two's-complement int32 from the first four bytes of b.
func Int32BE(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

// putFloat32BE is the inverse of Float32BE.
func putFloat32BE(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}

func putInt32BE(b []byte, v int32) {
	binary.BigEndian.PutUint32(b, uint32(v))
}
