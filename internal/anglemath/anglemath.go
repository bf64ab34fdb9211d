// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package anglemath converts between scale values, gauge degrees and
// screen positions.
//
// Degrees follow the usual mathematical convention: 0 points right and
// values grow anti-clockwise. Screen y grows downward, so positions
// returned by DegreeToPosition have their y component negated.
package anglemath

import (
	"errors"
	"fmt"
	"image"
	"math"
)

const degToRad = float64(math.Pi) / 180

// ErrDivideByZero is returned when a scale has no numeric span.
var ErrDivideByZero = errors.New("scale span is zero")

// Arc is the angular span a scale is laid out on, walked anti-clockwise
// from Start to Stop. The lowest scale value sits at Stop.
type Arc struct {
	Start float64
	Stop  float64
}

// Normalize wraps degree into [0, 360).
func Normalize(degree float64) float64 {
	m := math.Mod(degree, 360)
	if m < 0 {
		m += 360
	}
	if m == 0 {
		return 0 // drop negative zero
	}
	return m
}

// DegreeDistance returns the shortest distance between two degrees,
// regardless of direction. The result is in [0, 180] for inputs in [0, 360).
func DegreeDistance(d1, d2 float64) float64 {
	dmin, dmax := math.Min(d1, d2), math.Max(d1, d2)
	return math.Min(dmax-dmin, 360+dmin-dmax)
}

// AnticlockwiseDistance returns how far stop lies from start when
// travelling in the gauge's anti-clockwise sense.
func AnticlockwiseDistance(start, stop float64) float64 {
	if start == stop {
		return 0
	}
	var delta float64
	if start > 180 {
		delta = 360 - start
	} else {
		delta = -start
	}
	return Normalize(stop + delta)
}

// Extent is the anti-clockwise distance covered by the arc.
func (a Arc) Extent() float64 {
	return AnticlockwiseDistance(a.Start, a.Stop)
}

// ScaleToAngle maps value, measured in scale units from scaleMin, onto the
// arc.
func ScaleToAngle(arc Arc, scaleMin, scaleMax int, value float64) (float64, error) {
	span := scaleMax - scaleMin
	if span == 0 {
		return 0, fmt.Errorf("scale %d..%d: %w", scaleMin, scaleMax, ErrDivideByZero)
	}
	ratio := arc.Extent() / float64(span)
	// explicit conversion keeps the product from being fused into an FMA
	return Normalize(arc.Stop - float64(ratio*value)), nil
}

// RotationAngle converts an indicator degree into the signed angle an
// image pointing up must be rotated by (positive is counter-clockwise).
func RotationAngle(degree float64) float64 {
	degree = Normalize(360 + degree)
	quotient := math.Floor(degree / 90)
	remainder := degree - quotient*90
	switch quotient {
	case 0:
		return -(90 - remainder)
	case 1:
		return remainder
	case 2:
		return 90 + remainder
	case 3:
		return -(180 - remainder)
	}
	panic(fmt.Sprintf("anglemath: unexpected degree %v", degree))
}

// DegreeToPosition returns the screen position at radius from center in
// direction degree. Coordinates are rounded half to even.
func DegreeToPosition(degree, radius float64, center image.Point) image.Point {
	sin, cos := math.Sincos(degree * degToRad)
	x := math.RoundToEven(float64(cos * radius))
	y := -math.RoundToEven(float64(sin * radius))
	return image.Pt(int(x)+center.X, int(y)+center.Y)
}
