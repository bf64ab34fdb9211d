// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/speed"
)

const (
	oledWidth  = 128
	oledHeight = 64
	// rows reserved under the gauge for the reading
	oledTextHeight = 13
	// channel level above which a scaled pixel lights up
	oledThreshold = 0x40
)

// RunDisplay renders the gauge on an SSD1306 OLED, driven by speed
// readings from MQTT.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// the driver always addresses the panel at 0x3C
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized at 0x3C")

	if err := dev.Draw(dev.Bounds(), textScreen("SPEEDO", "Waiting..."), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	w, err := buildWidget(cfg)
	if err != nil {
		return err
	}
	a := NewAnimator(w, cfg.SpeedUnit)

	client, err := connectMQTT("display", cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSpeed("display", client, cfg.TopicSpeed, func(r speed.Reading) {
		a.SetTarget(r.Value)
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.FrameInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	var shown string
	for range ticker.C {
		moved, err := a.Step()
		if err != nil {
			return err
		}

		st := a.Status()
		label := "--"
		if st.HasTarget {
			label = fmt.Sprintf("%d %s", st.Target, st.Unit)
		}
		if !moved && label == shown {
			continue
		}
		shown = label

		if err := dev.Draw(dev.Bounds(), oledFrame(a.Frame(), label), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

// oledFrame scales frame into the top of a 128x64 monochrome image and
// writes label underneath.
func oledFrame(frame image.Image, label string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	fb := frame.Bounds()
	area := image.Rect(0, 0, oledWidth, oledHeight-oledTextHeight)
	if fb.Dx() > 0 && fb.Dy() > 0 {
		scale := min(float64(area.Dx())/float64(fb.Dx()), float64(area.Dy())/float64(fb.Dy()))
		w, h := int(float64(fb.Dx())*scale), int(float64(fb.Dy())*scale)
		x := (area.Dx() - w) / 2
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), frame, fb, draw.Src, nil)

		for py := range h {
			for px := range w {
				c := scaled.RGBAAt(px, py)
				if max(c.R, c.G, c.B) >= oledThreshold {
					img.SetBit(x+px, py, image1bit.On)
				}
			}
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	width := drawer.MeasureString(label).Ceil()
	drawer.Dot = fixed.P((oledWidth-width)/2, oledHeight-2)
	drawer.DrawString(label)
	return img
}

// textScreen renders up to two centered lines.
func textScreen(line1, line2 string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range []string{line1, line2} {
		width := drawer.MeasureString(line).Ceil()
		drawer.Dot = fixed.P((oledWidth-width)/2, 26+13*i)
		drawer.DrawString(line)
	}
	return img
}
