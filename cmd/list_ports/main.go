package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/serialport"
)

func main() {
	ports, err := serialport.List()
	if err != nil {
		log.Fatalf("failed to list serial ports: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}
