package gx3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumWraps(t *testing.T) {
	b := make([]byte, 300)
	for i := range b {
		b[i] = 0xFF
	}
	assert.Equal(t, uint16(300*0xFF%65536), Checksum(b))

	big := make([]byte, 1000)
	for i := range big {
		big[i] = 0xFF
	}
	assert.Equal(t, uint16((1000*0xFF)%65536), Checksum(big))
}

func TestValidChecksum(t *testing.T) {
	assert.True(t, ValidChecksum([]byte{0xD4, 0x01, 0x00, 0xD5}))
	assert.False(t, ValidChecksum([]byte{0xD4, 0x01, 0x00, 0xD4}))
	assert.True(t, ValidChecksum([]byte{0x00, 0x00}))
	assert.False(t, ValidChecksum([]byte{0x01}))
	assert.False(t, ValidChecksum(nil))
}

func TestSealChecksum(t *testing.T) {
	msg := SealChecksum([]byte{0xD6, 0xCC, 0, 0})
	assert.Equal(t, []byte{0xD6, 0xCC, 0x01, 0xA2}, msg)
	assert.True(t, ValidChecksum(msg))
}

func TestChecksumDetectsSingleBitFlips(t *testing.T) {
	frame := EncodeFrame(FrameFields{
		Accel:  [3]float32{0.1, -0.2, 0.98},
		Angle:  [3]float32{0.01, 0.02, -0.03},
		Mag:    [3]float32{0.2, 0.0, 0.43},
		Matrix: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Ticks:  123456,
	})
	assert.True(t, ValidChecksum(frame))

	// A single flipped bit moves the sum by ±2^k with k < 8, which never
	// wraps to zero modulo 65536.
	for i := 0; i < FrameLength-2; i++ {
		for bit := 0; bit < 8; bit++ {
			bad := append([]byte(nil), frame...)
			bad[i] ^= 1 << bit
			assert.False(t, ValidChecksum(bad), "byte %d bit %d", i, bit)
		}
	}
}

func TestChecksumAcceptedWeakness(t *testing.T) {
	// The additive sum cannot see reordering or compensating errors. This is
	// the device's own integrity check and is kept as is.
	frame := EncodeFrame(FrameFields{Accel: [3]float32{1, 2, 3}, Ticks: 42})

	swapped := append([]byte(nil), frame...)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	assert.NotEqual(t, frame, swapped)
	assert.True(t, ValidChecksum(swapped))

	compensated := append([]byte(nil), frame...)
	compensated[5]++
	compensated[9]--
	assert.True(t, ValidChecksum(compensated))
}
