// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/gx3"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
)

// RunLocalConsole talks to the GX3 (or the simulator) directly and prints
// every sample, without a broker.
func RunLocalConsole(opts BridgeOptions) error {
	cfg := config.Get()

	open, _, err := bridgeOpener(cfg, opts)
	if err != nil {
		return err
	}
	dev := gx3.New(open, gx3.Options{
		FrameID: cfg.FrameID,
		Delay:   cfg.Delay(),
		Settle:  cfg.Settle(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDevice(ctx, dev, consoleSink(os.Stdout), opts.StatsEvery)
}

func consoleSink(out io.Writer) imu.Sink {
	return imu.SinkFunc(func(s imu.Sample) error {
		_, err := fmt.Fprintf(out, "%s\n%s\n", formatIMU(s.IMUMessage()), formatMag(s.MagneticFieldMessage()))
		return err
	})
}
