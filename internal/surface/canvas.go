// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package surface provides the concrete drawing backends, label
// rasterizer and image loader consumed by the gauge widget.
package surface

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/relabs-tech/speedo/internal/gauge"
)

// ImageCanvas draws into an in-memory RGBA image with aliased lines.
type ImageCanvas struct {
	img *image.RGBA
}

var _ gauge.Canvas = (*ImageCanvas)(nil)

// NewImageCanvas returns a transparent canvas of the given size.
func NewImageCanvas(width, height int) *ImageCanvas {
	return &ImageCanvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// NewImage adapts NewImageCanvas to gauge.NewCanvasFunc.
func NewImage(width, height int) gauge.Canvas {
	return NewImageCanvas(width, height)
}

func (c *ImageCanvas) Bounds() image.Rectangle { return c.img.Bounds() }

func (c *ImageCanvas) Image() image.Image { return c.img }

func (c *ImageCanvas) Fill(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *ImageCanvas) Blit(src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(c.img, r, src, src.Bounds().Min, draw.Over)
}

// Line draws a one pixel wide line with Bresenham's algorithm. Pixels
// outside the canvas are dropped.
func (c *ImageCanvas) Line(from, to image.Point, col color.Color) {
	x0, y0, x1, y1 := from.X, from.Y, to.X, to.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.img.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// FilledCircle fills every pixel within radius of center. A radius of
// zero sets the center pixel only.
func (c *ImageCanvas) FilledCircle(center image.Point, radius int, col color.Color) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				c.img.Set(center.X+dx, center.Y+dy, col)
			}
		}
	}
}

func (c *ImageCanvas) Rotate(src image.Image, angle float64) image.Image {
	return rotate(src, angle)
}

// rotate turns src counter-clockwise by angle degrees onto a transparent
// image sized to the rotated bounding box.
func rotate(src image.Image, angle float64) *image.RGBA {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	sin, cos = snap(sin), snap(cos)

	sb := src.Bounds()
	w, h := float64(sb.Dx()), float64(sb.Dy())
	dw := math.Ceil(math.Abs(w*cos) + math.Abs(h*sin))
	dh := math.Ceil(math.Abs(w*sin) + math.Abs(h*cos))
	dst := image.NewRGBA(image.Rect(0, 0, int(dw), int(dh)))

	// screen y points down, so a counter-clockwise turn maps
	// (x, y) to (x cos + y sin, -x sin + y cos) around the centers
	scx, scy := float64(sb.Min.X)+w/2, float64(sb.Min.Y)+h/2
	dcx, dcy := dw/2, dh/2
	s2d := f64.Aff3{
		cos, sin, dcx - (cos*scx + sin*scy),
		-sin, cos, dcy - (-sin*scx + cos*scy),
	}
	draw.BiLinear.Transform(dst, s2d, src, sb, draw.Over, nil)
	return dst
}

// snap removes the rounding noise sin/cos leave on right angles.
func snap(v float64) float64 {
	const eps = 1e-12
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
