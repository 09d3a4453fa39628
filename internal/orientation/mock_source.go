// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// MockPoseAt generates smooth changing values: the pose of a slowly rocking,
// steadily turning body elapsed seconds after start. The simulator drives
// its orientation matrix from it.
func MockPoseAt(elapsed float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*30, 360),
	}
}
