// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/gx3"
)

// DefaultPath is where the binaries look for their configuration.
const DefaultPath = "./gx3_config.txt"

// Config holds all application configuration values.
type Config struct {
	// Serial link
	SerialPort     string
	SerialBaudRate uint
	SerialDataBits uint
	SerialStopBits uint
	SerialParity   string // N, E or O

	// Protocol
	FrameID       string
	ProtocolDelay float64 // seconds subtracted from every stamp
	SettleMS      int     // wait after a stop command

	// MQTT
	MQTTBroker          string
	MQTTClientIDBridge  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	MQTTQoS             byte
	MQTTRetain          bool

	// Topics
	TopicIMU string
	TopicMag string

	// Recording, empty disables it
	RecordDBPath string

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds

	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key at its default.
func Default() *Config {
	return &Config{
		SerialBaudRate:        115200,
		SerialDataBits:        8,
		SerialStopBits:        1,
		SerialParity:          "N",
		FrameID:               "imu",
		SettleMS:              int(gx3.DefaultSettle / time.Millisecond),
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDBridge:    "gx3-bridge",
		MQTTClientIDConsole:   "gx3-console",
		MQTTClientIDWeb:       "gx3-web",
		MQTTClientIDDisplay:   "gx3-display",
		TopicIMU:              "gx3/imu",
		TopicMag:              "gx3/magnetic",
		WebServerPort:         8080,
		DisplayUpdateInterval: 200,
		LogLevel:              "info",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of the defaults. Blank lines and lines
// starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)
	case "SERIAL_DATA_BITS":
		bits, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_DATA_BITS %q: %w", value, err)
		}
		if bits < 5 || bits > 8 {
			return fmt.Errorf("SERIAL_DATA_BITS must be 5-8, got %d", bits)
		}
		c.SerialDataBits = uint(bits)
	case "SERIAL_STOP_BITS":
		bits, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_STOP_BITS %q: %w", value, err)
		}
		if bits != 1 && bits != 2 {
			return fmt.Errorf("SERIAL_STOP_BITS must be 1 or 2, got %d", bits)
		}
		c.SerialStopBits = uint(bits)
	case "SERIAL_PARITY":
		p := strings.ToUpper(value)
		if p != "N" && p != "E" && p != "O" {
			return fmt.Errorf("SERIAL_PARITY must be N, E or O, got %q", value)
		}
		c.SerialParity = p

	// Protocol
	case "FRAME_ID":
		c.FrameID = value
	case "PROTOCOL_DELAY":
		delay, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PROTOCOL_DELAY %q: %w", value, err)
		}
		if math.IsNaN(delay) || math.IsInf(delay, 0) {
			return fmt.Errorf("PROTOCOL_DELAY must be finite, got %q", value)
		}
		c.ProtocolDelay = delay
	case "SETTLE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SETTLE_MS %q: %w", value, err)
		}
		if ms < 0 {
			return fmt.Errorf("SETTLE_MS must not be negative, got %d", ms)
		}
		c.SettleMS = ms

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_QOS":
		qos, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_QOS %q: %w", value, err)
		}
		if qos < 0 || qos > 2 {
			return fmt.Errorf("MQTT_QOS must be 0-2, got %d", qos)
		}
		c.MQTTQoS = byte(qos)
	case "MQTT_RETAIN":
		retain, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_RETAIN %q: %w", value, err)
		}
		c.MQTTRetain = retain

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_MAG":
		c.TopicMag = value

	case "RECORD_DB_PATH":
		c.RecordDBPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	case "LOG_LEVEL":
		if _, err := log.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks the fields every binary needs. SERIAL_PORT is checked by
// RequireSerialPort since only the bridge needs it, and only with hardware.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicIMU == "" || c.TopicMag == "" {
		return fmt.Errorf("TOPIC_IMU and TOPIC_MAG are required")
	}
	if c.SerialBaudRate == 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// RequireSerialPort fails when no serial port is configured.
func (c *Config) RequireSerialPort() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	return nil
}

// Settle returns SETTLE_MS as a duration.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.SettleMS) * time.Millisecond
}

// Delay returns PROTOCOL_DELAY as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.ProtocolDelay * float64(time.Second))
}

// ApplyLogLevel sets the logrus level from LOG_LEVEL.
func (c *Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("config: %v, keeping %s", err, log.GetLevel())
		return
	}
	log.SetLevel(level)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
		if err == nil {
			globalConfig.ApplyLogLevel()
		}
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
