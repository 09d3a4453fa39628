package imu

import (
	"time"

	"github.com/relabs-tech/gx3_bridge/internal/orientation"
)

// Header stamps every published message.
type Header struct {
	Seq     uint64    `json:"seq"`
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// IMUMessage is the inertial part of a sample as published on the IMU topic.
// OrientationCovariance[0] = -1 marks the covariance as unknown; the other
// covariances are zero, meaning "not reported".
type IMUMessage struct {
	Header                       Header                 `json:"header"`
	Orientation                  orientation.Quaternion `json:"orientation"`
	OrientationCovariance        [9]float64             `json:"orientation_covariance"`
	AngularVelocity              Vector3                `json:"angular_velocity"`
	AngularVelocityCovariance    [9]float64             `json:"angular_velocity_covariance"`
	LinearAcceleration           Vector3                `json:"linear_acceleration"`
	LinearAccelerationCovariance [9]float64             `json:"linear_acceleration_covariance"`
}

// MagneticFieldMessage is the magnetometer part of a sample.
type MagneticFieldMessage struct {
	Header        Header  `json:"header"`
	MagneticField Vector3 `json:"magnetic_field"`
}

func (s Sample) header() Header {
	return Header{Seq: s.Seq, Stamp: s.Stamp, FrameID: s.FrameID}
}

// IMUMessage splits the inertial fields out of s.
func (s Sample) IMUMessage() IMUMessage {
	m := IMUMessage{
		Header:             s.header(),
		Orientation:        s.Orientation,
		AngularVelocity:    s.AngularVelocity,
		LinearAcceleration: s.Acceleration,
	}
	m.OrientationCovariance[0] = -1
	return m
}

// MagneticFieldMessage splits the magnetometer field out of s.
func (s Sample) MagneticFieldMessage() MagneticFieldMessage {
	return MagneticFieldMessage{
		Header:        s.header(),
		MagneticField: s.MagneticField,
	}
}
