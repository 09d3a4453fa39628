// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import "encoding/binary"

// Checksum is the device's additive checksum: the wrapping 16-bit sum of b.
//
// It is not a CRC. Two compensating byte errors, or a carry that lands in
// the same column, go unnoticed. The device computes exactly this value,
// so it cannot be strengthened on the host side.
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, c := range b {
		sum += uint16(c)
	}
	return sum
}

// ValidChecksum reports whether the last two bytes of msg hold, big-endian,
// the checksum of everything before them.
func ValidChecksum(msg []byte) bool {
	got, want, ok := checksumPair(msg)
	return ok && got == want
}

// checksumPair returns the computed and the transmitted checksum of msg.
func checksumPair(msg []byte) (computed, received uint16, ok bool) {
	n := len(msg)
	if n < 2 {
		return 0, 0, false
	}
	return Checksum(msg[:n-2]), binary.BigEndian.Uint16(msg[n-2:]), true
}

// SealChecksum writes the checksum of msg[:len(msg)-2] into the last two
// bytes of msg. The simulator and the tests use it to build valid messages.
func SealChecksum(msg []byte) []byte {
	n := len(msg)
	binary.BigEndian.PutUint16(msg[n-2:], Checksum(msg[:n-2]))
	return msg
}
