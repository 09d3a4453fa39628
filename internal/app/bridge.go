// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/gx3"
	"github.com/relabs-tech/gx3_bridge/internal/gx3/gx3sim"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/publish"
	"github.com/relabs-tech/gx3_bridge/internal/record"
	"github.com/relabs-tech/gx3_bridge/internal/serialport"
)

// BridgeOptions select where the bridge reads from.
type BridgeOptions struct {
	Simulate     bool // use the built-in simulator instead of SERIAL_PORT
	SimRate      int  // simulator frames per second
	CorruptEvery int  // simulator damages every Nth frame
	StatsEvery   time.Duration
}

// RunBridge runs handshake and stream against the GX3 (or the simulator) and
// publishes every sample until SIGINT or SIGTERM.
func RunBridge(opts BridgeOptions) error {
	cfg := config.Get()

	open, portName, err := bridgeOpener(cfg, opts)
	if err != nil {
		return err
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDBridge)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sinks := imu.Fanout{
		publish.NewMQTTSink(client, publish.Topics{IMU: cfg.TopicIMU, Magnetic: cfg.TopicMag}, cfg.MQTTQoS, cfg.MQTTRetain),
	}

	if cfg.RecordDBPath != "" {
		rec, err := record.Open(cfg.RecordDBPath, cfg.FrameID, portName)
		if err != nil {
			return err
		}
		defer func() {
			if n, err := rec.Count(); err == nil {
				log.Infof("bridge: recorded %d samples in session %s", n, rec.Session())
			}
			if err := rec.Close(); err != nil {
				log.Warnf("bridge: close recorder: %v", err)
			}
		}()
		log.Infof("bridge: recording to %s (session %s)", cfg.RecordDBPath, rec.Session())
		sinks = append(sinks, rec)
	}

	dev := gx3.New(open, gx3.Options{
		FrameID: cfg.FrameID,
		Delay:   cfg.Delay(),
		Settle:  cfg.Settle(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDevice(ctx, dev, sinks, opts.StatsEvery)
}

// runDevice performs the handshake, then streams into sink until ctx is done
// or the transport fails. The device is shut down either way.
func runDevice(ctx context.Context, dev *gx3.Device, sink imu.Sink, statsEvery time.Duration) error {
	log.Println("bridge: starting handshake")
	if _, err := dev.Handshake(ctx); err != nil {
		return err
	}

	if statsEvery > 0 {
		go logStats(ctx, dev, statsEvery)
	}

	log.Println("bridge: streaming")
	err := dev.Stream(ctx, sink)
	if err != nil {
		if serr := dev.Shutdown(); serr != nil {
			log.Warnf("bridge: shutdown after stream error: %v", serr)
		}
	}

	st := dev.Stats()
	log.WithFields(log.Fields{
		"frames":  st.Frames,
		"emitted": st.Emitted,
		"dropped": st.Dropped,
	}).Info("bridge: stream ended")
	return err
}

func logStats(ctx context.Context, dev *gx3.Device, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := dev.Stats()
			log.WithFields(log.Fields{
				"frames":  st.Frames,
				"emitted": st.Emitted,
				"dropped": st.Dropped,
			}).Info("bridge: stats")
		}
	}
}

func bridgeOpener(cfg *config.Config, opts BridgeOptions) (gx3.Opener, string, error) {
	if opts.Simulate {
		sim := gx3sim.New(gx3sim.Config{
			Rate:         opts.SimRate,
			Pace:         true,
			CorruptEvery: opts.CorruptEvery,
		})
		log.Println("bridge: using simulated GX3")
		return sim.Open, "simulator", nil
	}

	if err := cfg.RequireSerialPort(); err != nil {
		return nil, "", err
	}
	sp, err := serialport.Options{
		PortName: cfg.SerialPort,
		BaudRate: int(cfg.SerialBaudRate),
		DataBits: int(cfg.SerialDataBits),
		StopBits: int(cfg.SerialStopBits),
		Parity:   cfg.SerialParity,
	}.Normalize()
	if err != nil {
		return nil, "", err
	}
	log.Printf("bridge: using %s at %d baud", sp.PortName, sp.BaudRate)
	return serialport.Opener(sp), sp.PortName, nil
}
