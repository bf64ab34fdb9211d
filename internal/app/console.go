// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/speed"
)

// RunConsole draws the gauge in the terminal with half-block characters.
// With useMock set it animates a local mock source instead of subscribing
// to MQTT. Esc, q or Ctrl-C quits.
func RunConsole(useMock bool) error {
	cfg := config.Get()

	w, err := buildWidget(cfg)
	if err != nil {
		return err
	}
	a := NewAnimator(w, cfg.SpeedUnit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errg, gctx := errgroup.WithContext(ctx)

	if useMock {
		src := speed.NewMockSource(slices.Max(cfg.GaugeScales), cfg.SpeedUnit)
		errg.Go(func() error { return feedMock(gctx, a, src, time.Duration(cfg.MockPublishInterval)*time.Millisecond) })
	} else {
		client, err := connectMQTT("console", cfg.MQTTBroker, cfg.MQTTClientIDConsole)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		if err := subscribeSpeed("console", client, cfg.TopicSpeed, func(r speed.Reading) {
			a.SetTarget(r.Value)
		}); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	// log lines would tear the screen
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-gctx.Done():
				return
			}
		}
	}()

	errg.Go(func() error {
		defer cancel()
		return consoleLoop(gctx, screen, a, events, time.Duration(cfg.FrameInterval)*time.Millisecond)
	})
	return errg.Wait()
}

func feedMock(ctx context.Context, a *Animator, src speed.Source, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r, err := src.Next()
		if err != nil {
			return err
		}
		a.SetTarget(r.Value)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func consoleLoop(ctx context.Context, screen tcell.Screen, a *Animator, events <-chan tcell.Event, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	drawConsole(screen, a)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				drawConsole(screen, a)
			}
		case <-ticker.C:
			moved, err := a.Step()
			if err != nil {
				return err
			}
			if moved {
				drawConsole(screen, a)
			}
		}
	}
}

func drawConsole(screen tcell.Screen, a *Animator) {
	cols, rows := screen.Size()
	screen.Clear()

	for _, c := range halfBlocks(a.Frame(), cols, rows-1) {
		style := tcell.StyleDefault.
			Foreground(tcell.NewRGBColor(int32(c.top.R), int32(c.top.G), int32(c.top.B))).
			Background(tcell.NewRGBColor(int32(c.bottom.R), int32(c.bottom.G), int32(c.bottom.B)))
		screen.SetContent(c.x, c.y, '▀', nil, style)
	}

	st := a.Status()
	text := "waiting for speed"
	if st.HasTarget {
		text = fmt.Sprintf("%d %s  %s", st.Target, st.Unit, st.State)
	}
	for i, r := range text {
		if i >= cols {
			break
		}
		screen.SetContent(i, rows-1, r, nil, tcell.StyleDefault)
	}
	screen.Show()
}

// cell is one terminal character showing two vertically stacked pixels.
type cell struct {
	x, y        int
	top, bottom color.RGBA
}

// halfBlocks fits frame into cols x rows terminal cells, two pixels per
// cell, centered horizontally.
func halfBlocks(frame image.Image, cols, rows int) []cell {
	fb := frame.Bounds()
	if cols <= 0 || rows <= 0 || fb.Empty() {
		return nil
	}

	scale := min(float64(cols)/float64(fb.Dx()), float64(rows*2)/float64(fb.Dy()))
	w := max(int(float64(fb.Dx())*scale), 1)
	h := max(int(float64(fb.Dy())*scale), 1)
	scaled := image.NewRGBA(image.Rect(0, 0, w, h+h%2))
	draw.ApproxBiLinear.Scale(scaled, image.Rect(0, 0, w, h), frame, fb, draw.Src, nil)

	x0 := (cols - w) / 2
	cells := make([]cell, 0, w*(h+1)/2)
	for y := 0; y < h; y += 2 {
		for x := range w {
			cells = append(cells, cell{
				x:      x0 + x,
				y:      y / 2,
				top:    scaled.RGBAAt(x, y),
				bottom: scaled.RGBAAt(x, y+1),
			})
		}
	}
	return cells
}
