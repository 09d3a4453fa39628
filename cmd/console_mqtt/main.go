package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/app"
	"github.com/relabs-tech/gx3_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	log.Println("starting gx3 console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
