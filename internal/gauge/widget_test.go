// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gauge

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/speedo/internal/anglemath"
)

type op struct {
	kind   string
	from   image.Point
	to     image.Point
	radius int
	angle  float64
}

type fakeCanvas struct {
	bounds image.Rectangle
	ops    []op
}

func (c *fakeCanvas) Bounds() image.Rectangle { return c.bounds }
func (c *fakeCanvas) Fill(color.Color)        { c.ops = append(c.ops, op{kind: "fill"}) }
func (c *fakeCanvas) Blit(src image.Image, at image.Point) {
	c.ops = append(c.ops, op{kind: "blit", from: at, to: at.Add(src.Bounds().Size())})
}
func (c *fakeCanvas) Line(from, to image.Point, _ color.Color) {
	c.ops = append(c.ops, op{kind: "line", from: from, to: to})
}
func (c *fakeCanvas) FilledCircle(center image.Point, radius int, _ color.Color) {
	c.ops = append(c.ops, op{kind: "circle", from: center, radius: radius})
}
func (c *fakeCanvas) Rotate(src image.Image, angle float64) image.Image {
	c.ops = append(c.ops, op{kind: "rotate", angle: angle})
	return image.NewRGBA(src.Bounds())
}
func (c *fakeCanvas) Image() image.Image { return image.NewRGBA(c.bounds) }

func (c *fakeCanvas) kinds() []string {
	out := make([]string, len(c.ops))
	for i, o := range c.ops {
		out[i] = o.kind
	}
	return out
}

func (c *fakeCanvas) reset() { c.ops = nil }

func newFakeCanvas(width, height int) Canvas {
	return &fakeCanvas{bounds: image.Rect(0, 0, width, height)}
}

// fakeLabeler renders each character as a box half the label height wide.
type fakeLabeler struct{}

func (fakeLabeler) Rasterize(text string, height int, _ color.Color) (image.Image, error) {
	if text == "bad" {
		return nil, errors.New("no glyphs")
	}
	return image.NewRGBA(image.Rect(0, 0, len(text)*height/2, height)), nil
}

type fakeLoader map[string]image.Image

func (l fakeLoader) Load(path string) (image.Image, error) {
	img, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return img, nil
}

func speedScales() []float64 {
	var out []float64
	for v := 0; v <= 220; v += 20 {
		out = append(out, float64(v))
	}
	return out
}

func baseConfig() Config {
	return Config{
		Scales:    speedScales(),
		NewCanvas: newFakeCanvas,
		Labeler:   fakeLabeler{},
	}
}

func newWidget(t *testing.T, cfg Config) (*Widget, *fakeCanvas) {
	t.Helper()
	w, err := New(cfg)
	require.NoError(t, err)
	return w, w.Canvas().(*fakeCanvas)
}

func TestNewRejectsBadScales(t *testing.T) {
	t.Parallel()

	for _, scales := range [][]float64{nil, {}, {0, 2.5, 5}, {math.NaN()}, {math.Inf(1)}} {
		cfg := baseConfig()
		cfg.Scales = scales
		_, err := New(cfg)
		require.ErrorIs(t, err, ErrInvalidConfig, "scales=%v", scales)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.NewCanvas = nil
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = baseConfig()
	cfg.Labeler = nil
	_, err = New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = baseConfig()
	cfg.IndicatorImagePath = "needle.png"
	_, err = New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewBackgroundNeedsAnchorAndIndicator(t *testing.T) {
	t.Parallel()

	loader := fakeLoader{
		"dial.png":   image.NewRGBA(image.Rect(0, 0, 300, 200)),
		"needle.png": image.NewRGBA(image.Rect(0, 0, 8, 90)),
	}

	tests := []struct {
		name    string
		anchor  image.Point
		length  int
		needle  string
		wantErr bool
	}{
		{"no anchor", image.Point{}, 100, "", true},
		{"half anchor", image.Pt(150, 0), 100, "", true},
		{"no length or image", image.Pt(150, 150), 0, "", true},
		{"length", image.Pt(150, 150), 100, "", false},
		{"image", image.Pt(150, 150), 0, "needle.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			cfg.Images = loader
			cfg.BackgroundImagePath = "dial.png"
			cfg.Anchor = tt.anchor
			cfg.IndicatorLength = tt.length
			cfg.IndicatorImagePath = tt.needle

			w, err := New(cfg)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 300, 200), w.Canvas().Bounds())
		})
	}
}

func TestNewRadiusFromIndicatorImage(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Images = fakeLoader{
		"dial.png":   image.NewRGBA(image.Rect(0, 0, 300, 200)),
		"needle.png": image.NewRGBA(image.Rect(0, 0, 8, 90)),
	}
	cfg.BackgroundImagePath = "dial.png"
	cfg.IndicatorImagePath = "needle.png"
	cfg.Anchor = image.Pt(150, 150)

	w, _ := newWidget(t, cfg)
	require.Equal(t, 90.0, w.radius)
	require.Equal(t, 90.0, w.indicatorLength)
}

func TestBackgroundImageClearsCanvas(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Images = fakeLoader{"dial.png": image.NewRGBA(image.Rect(0, 0, 300, 200))}
	cfg.BackgroundImagePath = "dial.png"
	cfg.Anchor = image.Pt(150, 150)
	cfg.IndicatorLength = 100
	w, c := newWidget(t, cfg)
	require.Equal(t, []string{"fill", "blit"}, c.kinds()[:2])

	c.reset()
	require.NoError(t, w.Tick(100))
	require.Equal(t, []string{"fill", "blit"}, c.kinds()[:2])
	require.Equal(t, image.Point{}, c.ops[1].from)
}

func TestNewMissingImage(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Images = fakeLoader{}
	cfg.TickImagePath = "tick.png"
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewUnresolvableRadius(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Width = 1
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewLabelError(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Scales = []float64{0, 1}
	cfg.Labels = []string{"ok", "bad"}
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewCanvasSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		arc  anglemath.Arc
		want image.Rectangle
	}{
		{"upper half", anglemath.Arc{}, image.Rect(0, 0, 400, 250)},
		{"quarter", anglemath.Arc{Start: 45, Stop: 135}, image.Rect(0, 0, 400, 250)},
		{"lower half used", anglemath.Arc{Start: 330, Stop: 210}, image.Rect(0, 0, 400, 350)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			cfg.Arc = tt.arc
			w, _ := newWidget(t, cfg)
			require.Equal(t, tt.want, w.Canvas().Bounds())
		})
	}
}

func TestNewDrawsFirstFrame(t *testing.T) {
	t.Parallel()

	w, c := newWidget(t, baseConfig())
	require.Equal(t, 180, w.IndicatorDegree())
	require.Equal(t, Idle, w.State())

	want := []string{"fill"}
	for range speedScales() {
		want = append(want, "line", "blit")
	}
	want = append(want, "line", "circle")
	require.Equal(t, want, c.kinds())

	// first tick mark and label sit at 180 degrees, left of the anchor (200,225)
	require.Equal(t, op{kind: "line", from: image.Pt(12, 225), to: image.Pt(-12, 225)}, c.ops[1])
	require.Equal(t, image.Pt(25, 213), c.ops[2].from)

	needle := c.ops[len(c.ops)-2]
	require.Equal(t, image.Pt(200, 225), needle.from)
	require.Equal(t, image.Pt(0, 225), needle.to)
	require.Equal(t, 4, c.ops[len(c.ops)-1].radius)
}

func TestRect(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Position = image.Pt(10, 20)
	w, _ := newWidget(t, cfg)
	require.Equal(t, image.Rect(10, 20, 410, 270), w.Rect())
}

func TestSetTargetValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		want    int
		wantSet bool
	}{
		{"in range", 110, 110, true},
		{"below min", -5, 0, true},
		{"above max", 500, 220, true},
		{"float truncates", 3.9, 3, true},
		{"negative float truncates", -0.5, 0, true},
		{"string", "42", 42, true},
		{"padded string", " 7 ", 7, true},
		{"json number", json.Number("60"), 60, true},
		{"uint", uint16(80), 80, true},
		{"word", "abc", 0, false},
		{"decimal string", "3.5", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"nan", math.NaN(), 0, false},
		{"struct", struct{}{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, _ := newWidget(t, baseConfig())
			w.SetTargetValue(tt.raw)
			got, ok := w.Target()
			require.Equal(t, tt.wantSet, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSetTargetValueKeepsPreviousOnGarbage(t *testing.T) {
	t.Parallel()

	w, _ := newWidget(t, baseConfig())
	w.SetTargetValue(50)
	w.SetTargetValue("fast")
	got, ok := w.Target()
	require.True(t, ok)
	require.Equal(t, 50, got)
}

func TestTickWithoutTargetDoesNothing(t *testing.T) {
	t.Parallel()

	w, c := newWidget(t, baseConfig())
	c.reset()
	require.NoError(t, w.Tick(nil))
	require.NoError(t, w.Tick("garbage"))
	require.Equal(t, 180, w.IndicatorDegree())
	require.Empty(t, c.ops)
}

func TestTickConvergesOneDegreePerTick(t *testing.T) {
	t.Parallel()

	w, c := newWidget(t, baseConfig())

	// 110 km/h is the middle of a 0..220 scale on the upper half circle
	require.NoError(t, w.Tick(110))
	require.Equal(t, 179, w.IndicatorDegree())
	require.Equal(t, Seeking, w.State())

	ticks := 1
	for w.State() == Seeking {
		prev := w.IndicatorDegree()
		require.NoError(t, w.Tick(nil))
		require.Equal(t, prev-1, w.IndicatorDegree())
		ticks++
		require.LessOrEqual(t, ticks, 180, "indicator never settled")
	}
	require.Equal(t, 90, ticks)
	require.Equal(t, 90, w.IndicatorDegree())

	c.reset()
	require.NoError(t, w.Tick(nil))
	require.NoError(t, w.Tick(110))
	require.Equal(t, 90, w.IndicatorDegree())
	require.Empty(t, c.ops)
}

func TestTickRedrawsEveryStep(t *testing.T) {
	t.Parallel()

	w, c := newWidget(t, baseConfig())
	frame := len(c.ops)
	c.reset()

	require.NoError(t, w.Tick(220))
	require.Len(t, c.ops, frame)
	needle := c.ops[len(c.ops)-2]
	require.Equal(t, anglemath.DegreeToPosition(179, 200, image.Pt(200, 225)), needle.to)
}

func TestTickZeroIsATarget(t *testing.T) {
	t.Parallel()

	w, _ := newWidget(t, baseConfig())
	for range 10 {
		require.NoError(t, w.Tick(220))
	}
	require.Equal(t, 170, w.IndicatorDegree())

	require.NoError(t, w.Tick(0))
	got, _ := w.Target()
	require.Zero(t, got)
	require.Equal(t, 171, w.IndicatorDegree())
}

func TestTickWrapsThroughZero(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Arc = anglemath.Arc{Start: 330, Stop: 210}
	cfg.Scales = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	w, _ := newWidget(t, cfg)
	require.Equal(t, 210, w.IndicatorDegree())

	w.SetTargetValue(8)
	deg, ok := w.TargetDegree()
	require.True(t, ok)
	require.Equal(t, 330, deg)

	for range 211 {
		require.NoError(t, w.Tick(nil))
	}
	require.Equal(t, 359, w.IndicatorDegree())

	for range 29 {
		require.NoError(t, w.Tick(nil))
	}
	require.Equal(t, 330, w.IndicatorDegree())
	require.Equal(t, Idle, w.State())
}

func TestTickStepDoesNotOvershoot(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Step = 7
	w, _ := newWidget(t, cfg)

	w.SetTargetValue(110)
	ticks := 0
	for w.State() == Seeking {
		require.NoError(t, w.Tick(nil))
		ticks++
	}
	require.Equal(t, 13, ticks)
	require.Equal(t, 90, w.IndicatorDegree())
}

func TestTickConvergenceBound(t *testing.T) {
	t.Parallel()

	arcs := []anglemath.Arc{{Start: 0, Stop: 180}, {Start: 330, Stop: 210}, {Start: 45, Stop: 135}, {Start: 325, Stop: 215}}
	for _, arc := range arcs {
		for _, target := range []int{0, 40, 110, 220} {
			cfg := baseConfig()
			cfg.Arc = arc
			w, _ := newWidget(t, cfg)
			w.SetTargetValue(target)

			limit := int(arc.Extent()) + 1
			for i := 0; w.State() == Seeking; i++ {
				require.Less(t, i, limit, "arc=%v target=%d", arc, target)
				require.NoError(t, w.Tick(nil))
			}
		}
	}
}

func TestTickSingleScaleDivideByZero(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Scales = []float64{50}
	w, c := newWidget(t, cfg)
	require.Equal(t, []float64{180}, w.LabelDegrees())
	c.reset()

	err := w.Tick(50)
	require.ErrorIs(t, err, ErrDivideByZero)
	require.Equal(t, 180, w.IndicatorDegree())
	require.Empty(t, c.ops)
	require.Equal(t, Idle, w.State())

	// the failed target is not kept
	_, ok := w.Target()
	require.False(t, ok)
	require.NoError(t, w.Tick(nil))
}

func TestLabelDegrees(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Scales = []float64{0, 1, 2}
	w, _ := newWidget(t, cfg)
	require.Equal(t, []float64{180, 90, 0}, w.LabelDegrees())

	cfg.Arc = anglemath.Arc{Start: 330, Stop: 210}
	w, _ = newWidget(t, cfg)
	require.Equal(t, []float64{210, 90, -30}, w.LabelDegrees())
}

func TestCustomLabels(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Scales = []float64{0, 100, 200}
	cfg.Labels = []string{"0", "1k", "2k", "3k"}
	w, c := newWidget(t, cfg)
	require.Len(t, w.LabelDegrees(), 4)

	blits := 0
	for _, o := range c.ops {
		if o.kind == "blit" {
			blits++
		}
	}
	require.Equal(t, 4, blits)
}

func TestIndicatorAndTickImages(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Scales = []float64{0, 1, 2}
	cfg.Images = fakeLoader{
		"needle.png": image.NewRGBA(image.Rect(0, 0, 10, 100)),
		"tick.png":   image.NewRGBA(image.Rect(0, 0, 4, 12)),
	}
	cfg.IndicatorImagePath = "needle.png"
	cfg.TickImagePath = "tick.png"
	cfg.IndicatorAnchorHeight = 80
	w, c := newWidget(t, cfg)
	require.Equal(t, 100.0, w.indicatorLength)

	var angles []float64
	for _, o := range c.ops {
		if o.kind == "rotate" {
			angles = append(angles, o.angle)
		}
	}
	// ticks at 180, 90 and 0 degrees, then the needle at 180
	require.Equal(t, []float64{90, 0, -90, 90}, angles)
	require.NotContains(t, c.kinds(), "circle")

	// needle center is 100/2 - |100-80| = 30 px left of the anchor
	last := c.ops[len(c.ops)-1]
	require.Equal(t, "blit", last.kind)
	require.Equal(t, image.Pt(200-30-5, 225-50), last.from)
}
