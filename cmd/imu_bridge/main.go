// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/app"
	"github.com/relabs-tech/gx3_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	simulate := flag.Bool("simulate", false, "use the built-in GX3 simulator instead of SERIAL_PORT")
	simRate := flag.Int("sim-rate", 100, "simulator frames per second")
	corruptEvery := flag.Int("sim-corrupt-every", 0, "simulator damages every Nth frame (0 disables)")
	statsEvery := flag.Duration("stats", 10*time.Second, "interval between stats log lines (0 disables)")
	flag.Parse()

	log.Println("starting gx3 bridge (GX3 → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunBridge(app.BridgeOptions{
		Simulate:     *simulate,
		SimRate:      *simRate,
		CorruptEvery: *corruptEvery,
		StatsEvery:   *statsEvery,
	}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
