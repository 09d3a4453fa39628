package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/orientation"
)

func testIMUMessage() imu.IMUMessage {
	s := imu.Sample{
		FrameID:      "imu",
		Seq:          42,
		Acceleration: imu.Vector3{Z: 9.807},
		Orientation:  orientation.Identity,
	}
	return s.IMUMessage()
}

func TestFormatIMU(t *testing.T) {
	line := formatIMU(testIMUMessage())
	assert.Contains(t, line, "[IMU     42]")
	assert.Contains(t, line, "q=(+1.0000 +0.0000 +0.0000 +0.0000)")
	assert.Contains(t, line, "ROLL=   0.00")
	assert.Contains(t, line, "+9.807")
}

func TestFormatMag(t *testing.T) {
	line := formatMag(imu.MagneticFieldMessage{
		Header:        imu.Header{Seq: 3},
		MagneticField: imu.Vector3{X: 0.3, Y: 0.4},
	})
	assert.Equal(t, "[MAG      3] b=(+0.3000 +0.4000 +0.0000) |B|=0.5000", line)
}

func TestConsolePrintsBothTopics(t *testing.T) {
	cfg := config.Default()
	broker := newFakeBroker()
	var out bytes.Buffer

	require.NoError(t, subscribeConsole(broker, cfg, &out))

	payload, err := json.Marshal(testIMUMessage())
	require.NoError(t, err)
	broker.deliver(cfg.TopicIMU, payload)
	broker.deliver(cfg.TopicIMU, []byte("not json"))
	broker.deliver(cfg.TopicMag, []byte(`{"header":{"seq":42},"magnetic_field":{"x":0.2,"y":0,"z":0.43}}`))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[IMU     42]"))
	assert.True(t, strings.HasPrefix(lines[1], "[MAG     42]"))
}

func TestConsoleSubscribeError(t *testing.T) {
	broker := newFakeBroker()
	broker.err = errors.New("not authorized")
	assert.ErrorContains(t, subscribeConsole(broker, config.Default(), &bytes.Buffer{}), "not authorized")
}

func TestConsoleSink(t *testing.T) {
	var out bytes.Buffer
	s := imu.Sample{Seq: 5, Orientation: orientation.Identity, MagneticField: imu.Vector3{Z: 0.5}}

	require.NoError(t, consoleSink(&out).Emit(s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[IMU      5]"))
	assert.Equal(t, "[MAG      5] b=(+0.0000 +0.0000 +0.5000) |B|=0.5000", lines[1])
}
