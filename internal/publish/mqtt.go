// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish puts samples on the MQTT bus.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/imu"
)

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Topics names where each half of a sample goes.
type Topics struct {
	IMU      string
	Magnetic string
}

// MQTTSink publishes every sample as an IMU message and a magnetic field
// message, both JSON.
type MQTTSink struct {
	client   Publisher
	topics   Topics
	qos      byte
	retained bool
}

// NewMQTTSink returns a sink publishing through client.
func NewMQTTSink(client Publisher, topics Topics, qos byte, retained bool) *MQTTSink {
	return &MQTTSink{client: client, topics: topics, qos: qos, retained: retained}
}

// Emit implements imu.Sink. Both messages are attempted even when the first
// publish fails.
func (m *MQTTSink) Emit(s imu.Sample) error {
	return errors.Join(
		m.publish(m.topics.IMU, s.IMUMessage()),
		m.publish(m.topics.Magnetic, s.MagneticFieldMessage()),
	)
}

func (m *MQTTSink) publish(topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("json marshal error (%s): %w", topic, err)
	}
	if token := m.client.Publish(topic, m.qos, m.retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, token.Error())
	}
	return nil
}

// Connect dials the broker with the given client id. The caller disconnects.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warnf("MQTT connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Infof("connected to MQTT broker %s as %s", broker, clientID)
	return client, nil
}
