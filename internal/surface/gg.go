// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package surface

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"github.com/relabs-tech/speedo/internal/gauge"
)

// GGCanvas draws with the gogpu/gg software renderer, giving
// anti-aliased needles and hubs.
type GGCanvas struct {
	dc *gg.Context
}

var _ gauge.Canvas = (*GGCanvas)(nil)

// NewGGCanvas returns a transparent gg-backed canvas.
func NewGGCanvas(width, height int) *GGCanvas {
	return &GGCanvas{dc: gg.NewContext(width, height)}
}

// NewGG adapts NewGGCanvas to gauge.NewCanvasFunc.
func NewGG(width, height int) gauge.Canvas {
	return NewGGCanvas(width, height)
}

func (c *GGCanvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.dc.Width(), c.dc.Height())
}

func (c *GGCanvas) Image() image.Image { return c.dc.Image() }

func (c *GGCanvas) Fill(col color.Color) {
	c.dc.ClearWithColor(gg.FromColor(col))
}

func (c *GGCanvas) Blit(src image.Image, at image.Point) {
	c.dc.DrawImage(gg.ImageBufFromImage(src), float64(at.X), float64(at.Y))
}

// Line strokes through pixel centers so a one pixel line covers whole
// pixels.
func (c *GGCanvas) Line(from, to image.Point, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(1)
	c.dc.DrawLine(float64(from.X)+0.5, float64(from.Y)+0.5, float64(to.X)+0.5, float64(to.Y)+0.5)
	_ = c.dc.Stroke()
}

func (c *GGCanvas) FilledCircle(center image.Point, radius int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(float64(center.X)+0.5, float64(center.Y)+0.5, float64(radius)+0.5)
	_ = c.dc.Fill()
}

func (c *GGCanvas) Rotate(src image.Image, angle float64) image.Image {
	return rotate(src, angle)
}

// Close releases the gg context.
func (c *GGCanvas) Close() error {
	return c.dc.Close()
}
