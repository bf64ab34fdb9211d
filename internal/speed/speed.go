// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package speed defines the speed reading exchanged over MQTT and the
// sources that produce it.
package speed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reading is one speed sample as published on the speed topic.
type Reading struct {
	Value  float64   `json:"value"`
	Unit   string    `json:"unit"`
	Time   time.Time `json:"time"`
	Source string    `json:"source"` // "gps", "mock"
}

// Source is anything that can provide speed readings over time.
type Source interface {
	Next() (Reading, error)
}

// Decode accepts a JSON Reading or a bare number.
func Decode(payload []byte) (Reading, error) {
	text := strings.TrimSpace(string(payload))
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return Reading{Value: v}, nil
	}
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return Reading{}, fmt.Errorf("decode speed reading: %w", err)
	}
	return r, nil
}
