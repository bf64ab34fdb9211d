// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"slices"
	"time"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/speed"
)

// RunMockProducer publishes a sweeping speed across the configured scale.
func RunMockProducer() error {
	log.Println("producer: starting mock speed producer")

	cfg := config.Get()

	client, err := connectMQTT("producer", cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src := speed.NewMockSource(slices.Max(cfg.GaugeScales), cfg.SpeedUnit)
	ticker := time.NewTicker(time.Duration(cfg.MockPublishInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		r, err := src.Next()
		if err != nil {
			log.Printf("producer: error from mock source: %v", err)
			continue
		}

		if err := publishJSON(client, cfg.TopicSpeed, r); err != nil {
			log.Printf("producer: publish error: %v", err)
			continue
		}

		log.Printf("producer: %s published speed %.1f %s", t.Format(time.RFC3339), r.Value, r.Unit)
	}
	return nil
}
