// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/app"
	"github.com/relabs-tech/gx3_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	simulate := flag.Bool("simulate", false, "use the built-in GX3 simulator instead of SERIAL_PORT")
	flag.Parse()

	log.Println("starting gx3 console (direct serial, no broker)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunLocalConsole(app.BridgeOptions{Simulate: *simulate, SimRate: 10}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
