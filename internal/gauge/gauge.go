// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gauge implements an analog speedometer widget: a circular scale
// with labeled tick marks and a needle that eases toward a target value
// one step per Tick.
//
// The widget owns no rendering code. It computes geometry through
// anglemath and issues draw calls to a Canvas created by the caller's
// NewCanvasFunc. Labels and images are produced once, at construction,
// by the injected LabelRasterizer and ImageLoader.
//
// A Widget is not safe for concurrent use.
package gauge

import (
	"errors"
	"image"
	"image/color"

	"github.com/relabs-tech/speedo/internal/anglemath"
)

var (
	// ErrInvalidConfig is returned by New for configurations that cannot
	// produce a gauge.
	ErrInvalidConfig = errors.New("invalid gauge config")

	// ErrDivideByZero is returned by Tick when the scale has a single value.
	ErrDivideByZero = anglemath.ErrDivideByZero
)

// Canvas is the drawing surface a widget renders into. Calls take effect
// immediately, in the order they are issued.
type Canvas interface {
	Bounds() image.Rectangle
	Fill(c color.Color)
	// Blit draws src with its top-left corner at at.
	Blit(src image.Image, at image.Point)
	Line(from, to image.Point, c color.Color)
	FilledCircle(center image.Point, radius int, c color.Color)
	// Rotate returns src rotated counter-clockwise by angle degrees. The
	// result bounds are the rotated bounding box.
	Rotate(src image.Image, angle float64) image.Image
	// Image returns the rendered frame.
	Image() image.Image
}

// NewCanvasFunc creates a blank canvas of the given size.
type NewCanvasFunc func(width, height int) Canvas

// LabelRasterizer renders a label into an image height pixels tall.
type LabelRasterizer interface {
	Rasterize(text string, height int, c color.Color) (image.Image, error)
}

// ImageLoader loads background, indicator and tick images.
type ImageLoader interface {
	Load(path string) (image.Image, error)
}

// Defaults used when the corresponding Config field is zero.
const (
	DefaultWidth       = 400
	DefaultLabelHeight = 25
	DefaultStep        = 1
)

var (
	// DefaultArc is used when Config.Arc is the zero value.
	DefaultArc = anglemath.Arc{Start: 0, Stop: 180}

	NeonGreen = color.RGBA{R: 57, G: 255, B: 20, A: 255}
	Black     = color.RGBA{A: 255}
)

// Config describes a gauge. Zero values select defaults.
type Config struct {
	// Position is the top-left corner of the widget on the caller's screen.
	Position image.Point

	// Scales are the tick values. They must be integral and there must be
	// at least one.
	Scales []float64
	// Labels override the text drawn at each tick. Defaults to Scales.
	Labels []string

	// Width of the canvas when no background image is given.
	Width int
	Arc   anglemath.Arc

	BackgroundColor     color.Color
	BackgroundImagePath string

	LabelColor  color.Color
	LabelHeight int

	// Anchor is the center of the arc on the canvas. Required, with both
	// coordinates non-zero, when BackgroundImagePath is set.
	Anchor image.Point
	Radius int

	IndicatorColor        color.Color
	IndicatorImagePath    string
	IndicatorLength       int
	IndicatorAnchorHeight int

	TickImagePath string

	// Step is the number of degrees the indicator moves per Tick.
	Step int

	NewCanvas NewCanvasFunc
	Labeler   LabelRasterizer
	Images    ImageLoader
}
