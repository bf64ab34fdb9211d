// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package speed

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
	top   float64
	unit  string
}

// NewMockSource creates a mock speed source that sweeps smoothly between
// zero and top, taking about 21 seconds per cycle.
func NewMockSource(top float64, unit string) Source {
	return &mockSource{start: time.Now(), now: time.Now, top: top, unit: unit}
}

func (m *mockSource) Next() (Reading, error) {
	now := m.now()
	elapsed := now.Sub(m.start).Seconds()

	return Reading{
		Value:  m.top / 2 * (1 - math.Cos(elapsed*0.3)),
		Unit:   m.unit,
		Time:   now,
		Source: "mock",
	}, nil
}
