// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	retry "github.com/avast/retry-go/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/speedo/internal/speed"
)

// connectMQTT connects to the broker, retrying while it comes up.
func connectMQTT(component, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	err := retry.Do(func() error {
		token := client.Connect()
		token.Wait()
		return token.Error()
	},
		retry.DelayType(retry.FixedDelay),
		retry.Delay(1500*time.Millisecond),
		retry.Attempts(4),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("%s: MQTT connect retry %d: %v", component, n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, err)
	}
	log.Printf("%s: connected to MQTT broker at %s", component, broker)
	return client, nil
}

// publishJSON marshals v and publishes it retained.
func publishJSON(client mqtt.Client, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// subscribeSpeed calls fn for every decodable reading on topic.
func subscribeSpeed(component string, client mqtt.Client, topic string, fn func(speed.Reading)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		r, err := speed.Decode(msg.Payload())
		if err != nil {
			log.Printf("%s: %v", component, err)
			return
		}
		fn(r)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("%s: subscribed to %s", component, topic)
	return nil
}
