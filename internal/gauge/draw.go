// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gauge

import (
	"image"
	"image/color"
	"math"

	"github.com/relabs-tech/speedo/internal/anglemath"
)

// hubRatio sizes the filled circle drawn over the needle's pivot.
const hubRatio = 0.02

// Redraw renders a full frame: background, then ticks and labels, then
// the indicator.
func (w *Widget) Redraw() {
	w.drawBackground()
	w.drawLabels()
	w.drawIndicator()
}

func (w *Widget) drawBackground() {
	if w.background != nil {
		// clear first, transparent background pixels would keep the old frame
		w.canvas.Fill(color.Transparent)
		w.canvas.Blit(w.background, image.Point{})
		return
	}
	w.canvas.Fill(w.bgColor)
}

// LabelDegrees returns the direction of each label, from the stop degree
// back toward the start.
func (w *Widget) LabelDegrees() []float64 {
	out := make([]float64, len(w.labels))
	if len(out) == 1 {
		out[0] = w.arc.Stop
		return out
	}
	step := w.arc.Extent() / float64(len(out)-1)
	for i := range out {
		out[i] = w.arc.Stop - step*float64(i)
	}
	return out
}

func (w *Widget) drawLabels() {
	for i, degree := range w.LabelDegrees() {
		w.drawTick(degree)

		label := w.labels[i]
		width := label.Bounds().Dx()
		radius := w.radius - float64(w.labelHeight) - float64(width)/2
		center := anglemath.DegreeToPosition(degree, radius, w.anchor)
		w.canvas.Blit(label, centeredAt(label.Bounds(), center))
	}
}

func (w *Widget) drawTick(degree float64) {
	if w.tickImage != nil {
		rotated := w.canvas.Rotate(w.tickImage, anglemath.RotationAngle(degree))
		pos := anglemath.DegreeToPosition(degree, w.radius, w.anchor)
		w.canvas.Blit(rotated, centeredAt(rotated.Bounds(), pos))
		return
	}
	dr := float64(w.labelHeight) / 2
	from := anglemath.DegreeToPosition(degree, w.radius-dr, w.anchor)
	to := anglemath.DegreeToPosition(degree, w.radius+dr, w.anchor)
	w.canvas.Line(from, to, w.labelColor)
}

func (w *Widget) drawIndicator() {
	degree := float64(w.indicator)
	if w.indicatorImage != nil {
		rotated := w.canvas.Rotate(w.indicatorImage, anglemath.RotationAngle(degree))
		// the image's midpoint sits half its length out from the pivot,
		// pulled back by the part behind the anchor
		dl := math.Abs(w.indicatorLength - w.indicatorAnchorHeight)
		center := anglemath.DegreeToPosition(degree, w.indicatorLength/2-dl, w.anchor)
		w.canvas.Blit(rotated, centeredAt(rotated.Bounds(), center))
		return
	}
	tip := anglemath.DegreeToPosition(degree, w.indicatorLength, w.anchor)
	w.canvas.Line(w.anchor, tip, w.indicatorColor)
	hub := int(math.RoundToEven(w.radius * hubRatio))
	w.canvas.FilledCircle(w.anchor, hub, w.indicatorColor)
}

// centeredAt returns the top-left corner that centers a rectangle of b's
// size on c.
func centeredAt(b image.Rectangle, c image.Point) image.Point {
	return image.Pt(c.X-b.Dx()/2, c.Y-b.Dy()/2)
}
