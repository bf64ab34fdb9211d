// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"errors"
	"io"
	"log"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/gps"
	"github.com/relabs-tech/speedo/internal/speed"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes the ground speed and the combined fix to MQTT.
func RunGPSProducer() error {
	cfg := config.Get()

	unit, err := gps.ParseUnit(cfg.SpeedUnit)
	if err != nil {
		return err
	}

	client, err := connectMQTT("gps", cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return pumpNMEA(port, unit, func(fix gps.Fix, r speed.Reading) error {
		if err := publishJSON(client, cfg.TopicSpeed, r); err != nil {
			return err
		}
		if cfg.TopicGPS != "" {
			return publishJSON(client, cfg.TopicGPS, fix)
		}
		return nil
	})
}

// pumpNMEA reads sentences from src until EOF and calls publish for every
// sentence that carried a usable speed. Parse and publish errors are
// logged and skipped; read errors end the loop.
func pumpNMEA(src io.Reader, unit gps.Unit, publish func(gps.Fix, speed.Reading) error) error {
	var tracker gps.Tracker
	reader := bufio.NewReader(src)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			ok, perr := tracker.ParseLine(line)
			switch {
			case perr != nil:
				// noisy GPS or partial sentences
			case ok:
				fix := tracker.Fix()
				r := speed.Reading{
					Value:  fix.Speed(unit),
					Unit:   string(unit),
					Time:   time.Now(),
					Source: "gps",
				}
				if err := publish(fix, r); err != nil {
					log.Printf("gps: publish error: %v", err)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Printf("gps: read error: %v", err)
			return err
		}
	}
}
