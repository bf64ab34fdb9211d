// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/gauge"
	"github.com/relabs-tech/speedo/internal/surface"
)

// Status is the JSON view of a gauge served by /api/gauge.
type Status struct {
	HasTarget       bool      `json:"has_target"`
	Target          int       `json:"target"`
	TargetDegree    int       `json:"target_degree"`
	IndicatorDegree int       `json:"indicator_degree"`
	State           string    `json:"state"`
	ScaleMin        int       `json:"scale_min"`
	ScaleMax        int       `json:"scale_max"`
	Unit            string    `json:"unit,omitempty"`
	Updated         time.Time `json:"updated"`
}

// Animator owns a widget and drives it from a single goroutine while
// readers take finished frames. Speed readings may arrive from any
// goroutine; only the latest one is applied on the next step.
type Animator struct {
	mu      sync.Mutex
	w       *gauge.Widget
	unit    string
	pending any
	frame   *image.RGBA
	updated time.Time
	subs    map[string]chan struct{}
}

// NewAnimator wraps w, whose current canvas becomes the first frame.
func NewAnimator(w *gauge.Widget, unit string) *Animator {
	return &Animator{
		w:       w,
		unit:    unit,
		frame:   cloneImage(w.Canvas().Image()),
		updated: time.Now(),
		subs:    make(map[string]chan struct{}),
	}
}

// buildWidget creates a gauge from the configured geometry, rendering
// backend and label font.
func buildWidget(cfg *config.Config) (*gauge.Widget, error) {
	gc := cfg.Gauge()
	switch cfg.GaugeBackend {
	case "gg":
		gc.NewCanvas = surface.NewGG
	default:
		gc.NewCanvas = surface.NewImage
	}

	fonts, err := surface.LoadFontRasterizer(cfg.GaugeFontPath)
	if err != nil {
		return nil, err
	}
	// labels are rasterized once, inside gauge.New
	defer fonts.Close()

	gc.Labeler = fonts
	gc.Images = surface.FileLoader{}
	gauge.SetLogger(slog.Default())
	w, err := gauge.New(gc)
	if err != nil {
		return nil, fmt.Errorf("build gauge: %w", err)
	}
	return w, nil
}

// SetTarget queues v for the next Step.
func (a *Animator) SetTarget(v float64) {
	a.mu.Lock()
	a.pending = v
	a.mu.Unlock()
}

// Step ticks the widget once. It reports whether a new frame was drawn.
func (a *Animator) Step() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.pending
	a.pending = nil

	before := a.w.IndicatorDegree()
	if err := a.w.Tick(next); err != nil {
		return false, err
	}
	if a.w.IndicatorDegree() == before {
		return false, nil
	}

	a.frame = cloneImage(a.w.Canvas().Image())
	a.updated = time.Now()
	for _, ch := range a.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return true, nil
}

// Run steps the widget every interval until ctx is done.
func (a *Animator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.Step(); err != nil {
				return fmt.Errorf("animator: %w", err)
			}
		}
	}
}

// Status returns a snapshot of the widget state.
func (a *Animator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Status{
		IndicatorDegree: a.w.IndicatorDegree(),
		State:           a.w.State().String(),
		Unit:            a.unit,
		Updated:         a.updated,
	}
	s.Target, s.HasTarget = a.w.Target()
	s.TargetDegree, _ = a.w.TargetDegree()
	s.ScaleMin, s.ScaleMax = a.w.ScaleRange()
	return s
}

// Frame returns the latest rendered frame. The image is never modified
// after it is returned.
func (a *Animator) Frame() image.Image {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frame
}

// WritePNG encodes the latest frame.
func (a *Animator) WritePNG(w io.Writer) error {
	return png.Encode(w, a.Frame())
}

// Subscribe registers for frame notifications. Notifications coalesce:
// a slow reader sees at most one pending signal.
func (a *Animator) Subscribe() (id string, updates <-chan struct{}, cancel func()) {
	id = uuid.NewString()
	ch := make(chan struct{}, 1)

	a.mu.Lock()
	a.subs[id] = ch
	a.mu.Unlock()

	return id, ch, func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// Subscribers returns the number of registered subscribers.
func (a *Animator) Subscribers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
