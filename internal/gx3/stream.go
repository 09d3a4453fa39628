// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gx3

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/imu"
)

// ErrNoHandshake is returned by Stream before a successful Handshake.
var ErrNoHandshake = errors.New("gx3: handshake not completed")

// Stream reads frames one at a time and emits one sample per valid frame, in
// arrival order. Frames failing the checksum are logged and dropped. Sink
// errors are logged and do not stop the loop.
//
// Reads have no timeout: a silent device blocks Stream until ctx is
// cancelled, at which point the device is shut down and Stream returns nil.
// Any other transport failure is returned.
func (d *Device) Stream(ctx context.Context, sink imu.Sink) error {
	if !d.state.Streaming {
		return ErrNoHandshake
	}

	stop := context.AfterFunc(ctx, func() {
		if err := d.Shutdown(); err != nil {
			log.Warnf("gx3: shutdown: %v", err)
		}
	})
	defer stop()

	buf := d.frame[:]
	for {
		if err := d.readFull(buf); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gx3: stream: %w", err)
		}
		d.frames.Add(1)

		if err := checkReply("frame", buf); err != nil {
			n := d.dropped.Add(1)
			fields := log.Fields{
				"frame_id": d.opts.FrameID,
				"dropped":  n,
			}
			var csErr *ChecksumError
			if errors.As(err, &csErr) {
				fields["got"] = csErr.Got
				fields["want"] = csErr.Want
			}
			log.WithFields(fields).Warnf("gx3: checksum failed on message: %v", err)
			continue
		}

		s := d.dec.Decode(buf)
		s.Seq = d.emitted.Add(1) - 1
		log.Debugf("gx3: sample %d ticks=%d", s.Seq, s.DeviceTicks)

		if err := sink.Emit(s); err != nil {
			log.Warnf("gx3: emit sample %d: %v", s.Seq, err)
		}
	}
}
