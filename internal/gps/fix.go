// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "23/03/94"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	SpeedKPH   float64 `json:"speed_kph"`
	CourseDeg  float64 `json:"course_deg"` // course over ground
	Validity   string  `json:"validity"`   // "A" (valid) / "V" (void)
}

// Valid reports whether the last RMC sentence carried an active fix.
func (f Fix) Valid() bool { return f.Validity == nmea.ValidRMC }

// Speed returns the ground speed in u.
func (f Fix) Speed(u Unit) float64 { return u.FromKnots(f.SpeedKnots) }

const kphPerKnot = 1.852

// Tracker folds RMC and VTG sentences into a running Fix.
type Tracker struct {
	fix Fix
}

// Fix returns the current fix.
func (t *Tracker) Fix() Fix { return t.fix }

// Update applies one sentence. It reports whether the sentence produced a
// usable speed: a valid RMC, or a VTG while the fix is not void.
func (t *Tracker) Update(s nmea.Sentence) bool {
	switch m := s.(type) {
	case nmea.RMC:
		t.fix.Time = m.Time.String()
		t.fix.Date = m.Date.String()
		t.fix.Latitude = m.Latitude
		t.fix.Longitude = m.Longitude
		t.fix.SpeedKnots = m.Speed
		t.fix.SpeedKPH = m.Speed * kphPerKnot
		t.fix.CourseDeg = m.Course
		t.fix.Validity = m.Validity
		return t.fix.Valid()
	case nmea.VTG:
		if t.fix.Validity == nmea.InvalidRMC {
			return false
		}
		t.fix.SpeedKnots = m.GroundSpeedKnots
		t.fix.SpeedKPH = m.GroundSpeedKPH
		t.fix.CourseDeg = m.TrueTrack
		return true
	}
	return false
}

// ParseLine parses one line of NMEA output. Blank lines and lines that are
// not sentences are skipped without error.
func (t *Tracker) ParseLine(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false, nil
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return false, fmt.Errorf("parse nmea: %w", err)
	}
	return t.Update(s), nil
}
