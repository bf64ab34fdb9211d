// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "fmt"

// Unit is a display unit for speed.
type Unit string

const (
	KMH   Unit = "kmh"
	MPH   Unit = "mph"
	Knots Unit = "knots"
)

// ParseUnit accepts "kmh", "mph" or "knots".
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case KMH, MPH, Knots:
		return u, nil
	}
	return "", fmt.Errorf("unknown speed unit %q", s)
}

// FromKnots converts a speed in knots to u.
func (u Unit) FromKnots(knots float64) float64 {
	switch u {
	case KMH:
		return knots * kphPerKnot
	case MPH:
		return knots * 1.150779448
	}
	return knots
}

// Symbol is the short label shown next to a reading.
func (u Unit) Symbol() string {
	switch u {
	case KMH:
		return "km/h"
	case MPH:
		return "mph"
	}
	return "kn"
}
