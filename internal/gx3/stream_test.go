package gx3

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/serialport"
)

type recordingSink struct {
	mu      sync.Mutex
	samples []imu.Sample
	err     error
}

func (r *recordingSink) Emit(s imu.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return r.err
}

func (r *recordingSink) Samples() []imu.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]imu.Sample(nil), r.samples...)
}

func frameAt(ticks int32, az float32) []byte {
	return EncodeFrame(FrameFields{
		Accel:  [3]float32{0, 0, az},
		Matrix: identity9,
		Ticks:  ticks,
	})
}

func corrupt(frame []byte) []byte {
	frame[20] ^= 0x10
	return frame
}

func TestStreamDropsBadFrame(t *testing.T) {
	port := serialport.NewFakePort(
		handshakeReplies(),
		frameAt(625, 1),
		corrupt(frameAt(1250, 2)),
		frameAt(1875, 3),
	)
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	sink := &recordingSink{}
	err = d.Stream(context.Background(), sink)

	// The fake port runs dry after the third frame.
	assert.ErrorIs(t, err, ErrTransportClosed)

	samples := sink.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, int32(625), samples[0].DeviceTicks)
	assert.Equal(t, int32(1875), samples[1].DeviceTicks)
	assert.InDelta(t, GravityConstant, samples[0].Acceleration.Z, 1e-12)
	assert.InDelta(t, 3*GravityConstant, samples[1].Acceleration.Z, 1e-9)
	assert.Equal(t, uint64(0), samples[0].Seq)
	assert.Equal(t, uint64(1), samples[1].Seq)
	assert.Equal(t, "imu", samples[1].FrameID)
	assert.Equal(t, testOrigin.Add(30*time.Millisecond), samples[1].Stamp)

	assert.Equal(t, Stats{Frames: 3, Emitted: 2, Dropped: 1}, d.Stats())
}

func TestStreamLogsChecksumOnDrop(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	bad := corrupt(frameAt(1250, 2))
	port := serialport.NewFakePort(handshakeReplies(), frameAt(625, 1), bad)
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	_ = d.Stream(context.Background(), &recordingSink{})

	var entry *log.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Data["dropped"] != nil {
			entry = e
		}
	}
	require.NotNil(t, entry, "no warning logged for the dropped frame")
	assert.Equal(t, "imu", entry.Data["frame_id"])
	assert.Equal(t, uint64(1), entry.Data["dropped"])
	assert.Equal(t, Checksum(bad[:len(bad)-2]), entry.Data["got"])
	assert.Equal(t, uint16(bad[len(bad)-2])<<8|uint16(bad[len(bad)-1]), entry.Data["want"])
	assert.NotEqual(t, entry.Data["got"], entry.Data["want"])
}

func TestStreamAppliesDelay(t *testing.T) {
	port := serialport.NewFakePort(handshakeReplies(), frameAt(62500, 1))
	d := New((&serialport.FakeOpener{Ports: []*serialport.FakePort{port}}).Open, Options{
		FrameID: "gx3",
		Delay:   250 * time.Millisecond,
		Now:     func() time.Time { return testOrigin },
	})
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	sink := &recordingSink{}
	_ = d.Stream(context.Background(), sink)

	samples := sink.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, testOrigin.Add(750*time.Millisecond), samples[0].Stamp)
	assert.Equal(t, "gx3", samples[0].FrameID)
}

func TestStreamPartialFrameIsFatal(t *testing.T) {
	port := serialport.NewFakePort(handshakeReplies(), frameAt(625, 1), frameAt(1250, 1)[:40])
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	sink := &recordingSink{}
	err = d.Stream(context.Background(), sink)

	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.Len(t, sink.Samples(), 1)
}

func TestStreamSinkErrorDoesNotStopLoop(t *testing.T) {
	port := serialport.NewFakePort(handshakeReplies(), frameAt(625, 1), frameAt(1250, 1))
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	sink := &recordingSink{err: errors.New("broker down")}
	err = d.Stream(context.Background(), sink)

	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.Len(t, sink.Samples(), 2)
	assert.Equal(t, uint64(2), d.Stats().Emitted)
}

func TestStreamBeforeHandshake(t *testing.T) {
	d, _ := newTestDevice(serialport.NewFakePort())
	err := d.Stream(context.Background(), &recordingSink{})
	assert.ErrorIs(t, err, ErrNoHandshake)
}

func TestStreamShutdownOnCancel(t *testing.T) {
	port := serialport.NewFakePort(handshakeReplies(), frameAt(625, 1))
	port.BlockReads = true
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	done := make(chan error, 1)
	go func() { done <- d.Stream(ctx, sink) }()

	require.Eventually(t, func() bool { return len(sink.Samples()) == 1 }, time.Second, 5*time.Millisecond)
	before := len(port.Written())

	// The loop is now blocked waiting for a frame that never comes.
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}

	assert.True(t, port.Closed())
	assert.Equal(t, []byte{0xFA, 0x75, 0xB4}, port.Written()[before:])
	assert.NoError(t, d.Shutdown(), "second shutdown is a no-op")
}

func TestShutdownWithoutOpenPort(t *testing.T) {
	d, _ := newTestDevice()
	assert.NoError(t, d.Shutdown())
}

func TestShutdownReportsWriteError(t *testing.T) {
	port := serialport.NewFakePort(handshakeReplies())
	d, _ := newTestDevice(port)
	_, err := d.Handshake(context.Background())
	require.NoError(t, err)

	port.WriteError = errors.New("tx fault")
	err = d.Shutdown()

	assert.ErrorContains(t, err, "tx fault")
	assert.True(t, port.Closed(), "port is closed even when the stop command fails")
}
