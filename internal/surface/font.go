// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package surface

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/speedo/internal/gauge"
)

// FontRasterizer renders gauge labels with an OpenType font.
type FontRasterizer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face // by label height in pixels
}

var _ gauge.LabelRasterizer = (*FontRasterizer)(nil)

// NewFontRasterizer parses a TTF or OTF font.
func NewFontRasterizer(data []byte) (*FontRasterizer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontRasterizer{font: f, faces: make(map[int]font.Face)}, nil
}

// DefaultFontRasterizer uses the embedded Go Regular font.
func DefaultFontRasterizer() (*FontRasterizer, error) {
	return NewFontRasterizer(goregular.TTF)
}

// LoadFontRasterizer reads a font file, falling back to Go Regular when
// path is empty.
func LoadFontRasterizer(path string) (*FontRasterizer, error) {
	if path == "" {
		return DefaultFontRasterizer()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return NewFontRasterizer(data)
}

// Rasterize draws text into a transparent image exactly height pixels
// tall, vertically centered on the font's line box.
func (r *FontRasterizer) Rasterize(text string, height int, c color.Color) (image.Image, error) {
	if height <= 0 {
		return nil, fmt.Errorf("label height %d must be positive", height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	face, err := r.face(height)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	width := max(font.MeasureString(face, text).Ceil(), 1)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, ascent+(height-ascent-descent)/2),
	}
	d.DrawString(text)
	return img, nil
}

// face returns a face whose line box fits height, shrinking the point size
// once if ascent plus descent overflows. Callers hold r.mu.
func (r *FontRasterizer) face(height int) (font.Face, error) {
	if f, ok := r.faces[height]; ok {
		return f, nil
	}

	size := float64(height)
	f, err := r.newFace(size)
	if err != nil {
		return nil, err
	}
	m := f.Metrics()
	if line := (m.Ascent + m.Descent).Ceil(); line > height {
		_ = f.Close()
		if f, err = r.newFace(size * float64(height) / float64(line)); err != nil {
			return nil, err
		}
	}
	r.faces[height] = f
	return f, nil
}

func (r *FontRasterizer) newFace(size float64) (font.Face, error) {
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %.1fpt: %w", size, err)
	}
	return f, nil
}

// Close releases cached faces.
func (r *FontRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, f := range r.faces {
		_ = f.Close()
		delete(r.faces, h)
	}
	return nil
}
