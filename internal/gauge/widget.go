// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gauge

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/relabs-tech/speedo/internal/anglemath"
)

// State reports whether the indicator is moving.
type State int

const (
	Idle State = iota
	Seeking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Seeking:
		return "seeking"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Widget is an animated gauge.
type Widget struct {
	arc      anglemath.Arc
	scaleMin int
	scaleMax int
	step     int

	canvas     Canvas
	position   image.Point
	anchor     image.Point
	radius     float64
	background image.Image
	bgColor    color.Color

	labels      []image.Image
	labelHeight int
	labelColor  color.Color
	tickImage   image.Image

	indicatorImage        image.Image
	indicatorColor        color.Color
	indicatorLength       float64
	indicatorAnchorHeight float64

	indicator int
	target    int
	hasTarget bool
}

// New validates cfg, pre-renders labels and images, and draws the first
// frame with the indicator resting at the arc's stop degree.
func New(cfg Config) (*Widget, error) {
	scales, err := integralScales(cfg.Scales)
	if err != nil {
		return nil, err
	}
	if cfg.NewCanvas == nil {
		return nil, fmt.Errorf("%w: no canvas constructor", ErrInvalidConfig)
	}
	if cfg.Labeler == nil {
		return nil, fmt.Errorf("%w: no label rasterizer", ErrInvalidConfig)
	}
	if cfg.Images == nil && (cfg.BackgroundImagePath != "" || cfg.IndicatorImagePath != "" || cfg.TickImagePath != "") {
		return nil, fmt.Errorf("%w: image paths given without an image loader", ErrInvalidConfig)
	}

	w := &Widget{
		arc:                   cfg.Arc,
		scaleMin:              slices.Min(scales),
		scaleMax:              slices.Max(scales),
		step:                  cfg.Step,
		position:              cfg.Position,
		labelHeight:           cfg.LabelHeight,
		labelColor:            cfg.LabelColor,
		bgColor:               cfg.BackgroundColor,
		indicatorColor:        cfg.IndicatorColor,
		indicatorAnchorHeight: float64(cfg.IndicatorAnchorHeight),
	}
	if w.arc == (anglemath.Arc{}) {
		w.arc = DefaultArc
	}
	if w.step <= 0 {
		w.step = DefaultStep
	}
	if w.labelHeight <= 0 {
		w.labelHeight = DefaultLabelHeight
	}
	if w.labelColor == nil {
		w.labelColor = NeonGreen
	}
	if w.bgColor == nil {
		w.bgColor = Black
	}
	if w.indicatorColor == nil {
		w.indicatorColor = w.labelColor
	}
	w.indicator = int(anglemath.Normalize(math.RoundToEven(w.arc.Stop)))

	if cfg.IndicatorImagePath != "" {
		if w.indicatorImage, err = cfg.Images.Load(cfg.IndicatorImagePath); err != nil {
			return nil, fmt.Errorf("%w: indicator image: %w", ErrInvalidConfig, err)
		}
	}
	if cfg.TickImagePath != "" {
		if w.tickImage, err = cfg.Images.Load(cfg.TickImagePath); err != nil {
			return nil, fmt.Errorf("%w: tick image: %w", ErrInvalidConfig, err)
		}
	}

	var size image.Point
	if cfg.BackgroundImagePath != "" {
		if cfg.Anchor.X == 0 || cfg.Anchor.Y == 0 || (cfg.IndicatorLength == 0 && cfg.IndicatorImagePath == "") {
			return nil, fmt.Errorf("%w: a background image needs the anchor and the indicator length or image", ErrInvalidConfig)
		}
		if w.background, err = cfg.Images.Load(cfg.BackgroundImagePath); err != nil {
			return nil, fmt.Errorf("%w: background image: %w", ErrInvalidConfig, err)
		}
		w.anchor = cfg.Anchor
		w.radius = float64(firstPositive(cfg.Radius, cfg.IndicatorLength, w.indicatorImageHeight()))
		size = w.background.Bounds().Size()
	} else {
		width := firstPositive(cfg.Width, DefaultWidth)
		w.radius = float64(firstPositive(cfg.Radius, cfg.IndicatorLength, width/2))
		height := scaleHeight(w.arc, w.radius) + 2*float64(w.labelHeight)
		w.anchor = image.Pt(width/2, int(w.radius)+w.labelHeight)
		size = image.Pt(width, int(height))
	}
	if w.radius <= 0 || size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: cannot determine scale radius, set the radius, indicator length or indicator image", ErrInvalidConfig)
	}

	switch {
	case w.indicatorImage != nil:
		w.indicatorLength = float64(w.indicatorImageHeight())
	case cfg.IndicatorLength > 0:
		w.indicatorLength = float64(cfg.IndicatorLength)
	default:
		w.indicatorLength = w.radius
	}

	labels := cfg.Labels
	if labels == nil {
		labels = make([]string, len(scales))
		for i, s := range scales {
			labels[i] = strconv.Itoa(s)
		}
	}
	w.labels = make([]image.Image, 0, len(labels))
	for _, text := range labels {
		img, err := cfg.Labeler.Rasterize(text, w.labelHeight, w.labelColor)
		if err != nil {
			return nil, fmt.Errorf("%w: label %q: %w", ErrInvalidConfig, text, err)
		}
		w.labels = append(w.labels, img)
	}

	w.canvas = cfg.NewCanvas(size.X, size.Y)
	w.Redraw()

	Logger().Debug("gauge: created",
		"scale_min", w.scaleMin, "scale_max", w.scaleMax,
		"arc_start", w.arc.Start, "arc_stop", w.arc.Stop,
		"radius", w.radius, "width", size.X, "height", size.Y)
	return w, nil
}

func integralScales(values []float64) ([]int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: scales must not be empty", ErrInvalidConfig)
	}
	out := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
			return nil, fmt.Errorf("%w: scale %v is not an integer", ErrInvalidConfig, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// scaleHeight is the canvas height needed below the top of the arc. Arcs
// confined to the upper half need only the radius.
func scaleHeight(arc anglemath.Arc, radius float64) float64 {
	dmin, dmax := math.Min(arc.Start, arc.Stop), math.Max(arc.Start, arc.Stop)
	if 0 <= dmin && dmax <= 180 {
		return radius
	}
	y1 := anglemath.DegreeToPosition(arc.Start, radius, image.Point{}).Y
	y2 := anglemath.DegreeToPosition(arc.Stop, radius, image.Point{}).Y
	return radius + float64(max(y1, y2))
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (w *Widget) indicatorImageHeight() int {
	if w.indicatorImage == nil {
		return 0
	}
	return w.indicatorImage.Bounds().Dy()
}

// SetTargetValue sets the value the indicator moves toward. Values outside
// the scale snap to the nearer bound. Input that is not a number is
// ignored and the previous target is kept.
func (w *Widget) SetTargetValue(raw any) {
	v, ok := parseValue(raw)
	if !ok {
		return
	}
	smin, smax := float64(w.scaleMin), float64(w.scaleMax)
	var target int
	switch {
	case smin <= v && v <= smax:
		target = int(v)
	case math.Abs(v-smin) < math.Abs(smax-v):
		target = w.scaleMin
	default:
		target = w.scaleMax
	}
	if !w.hasTarget || target != w.target {
		Logger().Debug("gauge: target changed", "raw", raw, "target", target)
	}
	w.target = target
	w.hasTarget = true
}

// parseValue truncates numbers toward zero. Strings must hold a decimal
// integer.
func parseValue(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		return parseString(string(v))
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	case fmt.Stringer:
		return parseString(v.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Trunc(f), true
}

func parseString(s string) (float64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// Tick advances the animation by one step. A non-nil value is passed to
// SetTargetValue first; zero is a valid target. Tick redraws only when the
// indicator moves. On error the widget is left as it was before the call.
func (w *Widget) Tick(value any) error {
	prevTarget, prevHas := w.target, w.hasTarget
	if value != nil {
		w.SetTargetValue(value)
	}
	if !w.hasTarget {
		return nil
	}
	if err := w.moveTowardsTarget(); err != nil {
		w.target, w.hasTarget = prevTarget, prevHas
		return err
	}
	return nil
}

func (w *Widget) moveTowardsTarget() error {
	target, err := w.targetDegree()
	if err != nil {
		return fmt.Errorf("gauge: target %d: %w", w.target, err)
	}
	if target == w.indicator {
		return nil
	}

	indDelta := anglemath.AnticlockwiseDistance(w.arc.Start, float64(w.indicator))
	tarDelta := anglemath.AnticlockwiseDistance(w.arc.Start, float64(target))
	n := min(w.step, max(1, int(math.Round(math.Abs(tarDelta-indDelta)))))
	if indDelta < tarDelta {
		w.rotateIndicator(n)
	} else {
		w.rotateIndicator(-n)
	}

	w.Redraw()
	return nil
}

func (w *Widget) targetDegree() (int, error) {
	deg, err := anglemath.ScaleToAngle(w.arc, w.scaleMin, w.scaleMax, float64(w.target-w.scaleMin))
	if err != nil {
		return 0, err
	}
	return int(anglemath.Normalize(math.RoundToEven(deg))), nil
}

func (w *Widget) rotateIndicator(offset int) {
	w.indicator = int(anglemath.Normalize(float64(w.indicator + offset)))
}

// IndicatorDegree returns the current needle direction.
func (w *Widget) IndicatorDegree() int { return w.indicator }

// Target returns the target value, if one has been set.
func (w *Widget) Target() (int, bool) { return w.target, w.hasTarget }

// TargetDegree returns the degree the indicator is moving toward.
func (w *Widget) TargetDegree() (int, bool) {
	if !w.hasTarget {
		return 0, false
	}
	deg, err := w.targetDegree()
	if err != nil {
		return 0, false
	}
	return deg, true
}

// State reports Seeking while the indicator has not reached the target.
func (w *Widget) State() State {
	deg, ok := w.TargetDegree()
	if !ok || deg == w.indicator {
		return Idle
	}
	return Seeking
}

// ScaleRange returns the lowest and highest scale values.
func (w *Widget) ScaleRange() (int, int) { return w.scaleMin, w.scaleMax }

// Rect is the widget's area on the caller's screen.
func (w *Widget) Rect() image.Rectangle {
	return w.canvas.Bounds().Sub(w.canvas.Bounds().Min).Add(w.position)
}

// Canvas returns the surface the widget draws into.
func (w *Widget) Canvas() Canvas { return w.canvas }
