// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/speedo/internal/speed"
)

func TestHalfBlocks(t *testing.T) {
	t.Parallel()

	frame := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := range 20 {
		for x := range 40 {
			c := color.RGBA{R: 255, A: 255}
			if y >= 10 {
				c = color.RGBA{B: 255, A: 255}
			}
			frame.SetRGBA(x, y, c)
		}
	}

	// 80 columns, 10 rows: height is the binding side, 40x20 pixels
	cells := halfBlocks(frame, 80, 10)
	require.Len(t, cells, 40*10)
	require.Equal(t, 20, cells[0].x)
	require.Equal(t, 0, cells[0].y)
	require.Equal(t, uint8(255), cells[0].top.R)
	require.Equal(t, uint8(255), cells[len(cells)-1].bottom.B)
	require.Equal(t, 9, cells[len(cells)-1].y)

	require.Nil(t, halfBlocks(frame, 0, 10))
	require.Nil(t, halfBlocks(image.NewRGBA(image.Rectangle{}), 80, 10))
}

type fixedSource struct{ v float64 }

func (s fixedSource) Next() (speed.Reading, error) { return speed.Reading{Value: s.v}, nil }

func TestFeedMock(t *testing.T) {
	t.Parallel()

	a := newTestAnimator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feedMock(ctx, a, fixedSource{v: 150}, time.Millisecond) }()

	require.Eventually(t, func() bool {
		moved, err := a.Step()
		return err == nil && moved
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 150, a.Status().Target)

	cancel()
	require.NoError(t, <-done)
}
