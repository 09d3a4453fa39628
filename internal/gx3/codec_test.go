package gx3

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32BE(t *testing.T) {
	assert.Equal(t, float32(1.0), Float32BE([]byte{0x3F, 0x80, 0x00, 0x00}))
	assert.Equal(t, float32(-2.5), Float32BE([]byte{0xC0, 0x20, 0x00, 0x00}))
	assert.Equal(t, float32(0), Float32BE([]byte{0, 0, 0, 0}))
	assert.True(t, math.IsNaN(float64(Float32BE([]byte{0x7F, 0xC0, 0x00, 0x00}))))
}

func TestInt32BE(t *testing.T) {
	assert.Equal(t, int32(62500), Int32BE([]byte{0x00, 0x00, 0xF4, 0x24}))
	assert.Equal(t, int32(-1), Int32BE([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.Equal(t, int32(math.MinInt32), Int32BE([]byte{0x80, 0x00, 0x00, 0x00}))
}

func TestCodecReversesLittleEndian(t *testing.T) {
	inputs := [][]byte{
		{0x01, 0x02, 0x03, 0x04},
		{0xDE, 0xAD, 0xBE, 0xEF},
		{0x3F, 0x80, 0x00, 0x00},
		{0x80, 0x00, 0x00, 0x01},
	}
	for _, b := range inputs {
		rev := []byte{b[3], b[2], b[1], b[0]}

		assert.Equal(t, math.Float32frombits(binary.LittleEndian.Uint32(rev)), Float32BE(b))
		assert.Equal(t, int32(binary.LittleEndian.Uint32(rev)), Int32BE(b))
		// Deterministic.
		assert.Equal(t, Int32BE(b), Int32BE(b))
	}
}

func TestCodecReadsOnlyFirstFourBytes(t *testing.T) {
	assert.Equal(t, int32(1), Int32BE([]byte{0, 0, 0, 1, 0xFF, 0xFF}))
}

func TestPutRoundTrip(t *testing.T) {
	b := make([]byte, 4)
	putFloat32BE(b, 9.807)
	assert.Equal(t, float32(9.807), Float32BE(b))

	putInt32BE(b, -62500)
	assert.Equal(t, int32(-62500), Int32BE(b))
}
