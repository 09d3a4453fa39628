package imu

import (
	"errors"
	"math"
	"time"

	"github.com/relabs-tech/gx3_bridge/internal/orientation"
)

// Vector3 is a 3-axis reading.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sample is one decoded GX3 frame in physical units.
type Sample struct {
	FrameID string    `json:"frame_id"`
	Seq     uint64    `json:"seq"`
	Stamp   time.Time `json:"stamp"` // host time derived from the device timer

	DeviceTicks int32   `json:"device_ticks"` // 62500 ticks per second since the timer reset
	Elapsed     float64 `json:"elapsed"`      // DeviceTicks in seconds

	Acceleration    Vector3                `json:"acceleration"`     // m/s²
	AngularVelocity Vector3                `json:"angular_velocity"` // rad/s
	MagneticField   Vector3                `json:"magnetic_field"`   // gauss
	Orientation     orientation.Quaternion `json:"orientation"`
}

// Sink consumes samples in arrival order.
type Sink interface {
	Emit(Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Sample) error

func (f SinkFunc) Emit(s Sample) error { return f(s) }

// Fanout emits every sample to each sink in turn. All sinks see the sample
// even if an earlier one fails; the errors are joined.
type Fanout []Sink

func (f Fanout) Emit(s Sample) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Emit(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
