// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/relabs-tech/speedo/internal/anglemath"
	"github.com/relabs-tech/speedo/internal/gauge"
)

// EnvPrefix is prepended to every key when looking up environment
// overrides, e.g. SPEEDO_MQTT_BROKER.
const EnvPrefix = "SPEEDO"

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicSpeed string // speed readings, JSON
	TopicGPS   string // full GPS fix, JSON

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
	SpeedUnit     string // "kmh", "mph" or "knots"

	// Timing
	FrameInterval       int // milliseconds between gauge ticks
	MockPublishInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Gauge
	GaugeBackend               string // "image" or "gg"
	GaugeScales                []float64
	GaugeLabels                []string
	GaugeStartDegree           float64
	GaugeStopDegree            float64
	GaugeWidth                 int
	GaugeRadius                int
	GaugeLabelHeight           int
	GaugeAnchor                image.Point
	GaugeIndicatorLength       int
	GaugeIndicatorAnchorHeight int
	GaugeStep                  int
	GaugeBackgroundColor       color.Color
	GaugeLabelColor            color.Color
	GaugeIndicatorColor        color.Color
	GaugeBackgroundImage       string
	GaugeIndicatorImage        string
	GaugeTickImage             string
	GaugeFontPath              string
}

// keys lists every accepted config key in file order.
var keys = []string{
	"MQTT_BROKER",
	"MQTT_CLIENT_ID_PRODUCER",
	"MQTT_CLIENT_ID_GPS",
	"MQTT_CLIENT_ID_CONSOLE",
	"MQTT_CLIENT_ID_WEB",
	"MQTT_CLIENT_ID_DISPLAY",
	"TOPIC_SPEED",
	"TOPIC_GPS",
	"GPS_SERIAL_PORT",
	"GPS_BAUD_RATE",
	"SPEED_UNIT",
	"FRAME_INTERVAL",
	"MOCK_PUBLISH_INTERVAL",
	"WEB_SERVER_PORT",
	"GAUGE_BACKEND",
	"GAUGE_SCALES",
	"GAUGE_LABELS",
	"GAUGE_START_DEGREE",
	"GAUGE_STOP_DEGREE",
	"GAUGE_WIDTH",
	"GAUGE_RADIUS",
	"GAUGE_LABEL_HEIGHT",
	"GAUGE_ANCHOR",
	"GAUGE_INDICATOR_LENGTH",
	"GAUGE_INDICATOR_ANCHOR_HEIGHT",
	"GAUGE_STEP",
	"GAUGE_BACKGROUND_COLOR",
	"GAUGE_LABEL_COLOR",
	"GAUGE_INDICATOR_COLOR",
	"GAUGE_BACKGROUND_IMAGE",
	"GAUGE_INDICATOR_IMAGE",
	"GAUGE_TICK_IMAGE",
	"GAUGE_FONT_PATH",
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the values used for keys absent from both the file and
// the environment.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "speedo-producer",
		MQTTClientIDGPS:      "speedo-gps",
		MQTTClientIDConsole:  "speedo-console",
		MQTTClientIDWeb:      "speedo-web",
		MQTTClientIDDisplay:  "speedo-display",
		TopicSpeed:           "speedo/speed",
		TopicGPS:             "speedo/gps",
		GPSBaudRate:          9600,
		SpeedUnit:            "kmh",
		FrameInterval:        20,
		MockPublishInterval:  1000,
		WebServerPort:        8080,
		GaugeBackend:         "image",
		GaugeScales:          []float64{0, 20, 40, 60, 80, 100, 120, 140, 160, 180},
		GaugeStartDegree:     0,
		GaugeStopDegree:      180,
		GaugeStep:            gauge.DefaultStep,
	}
}

// Load reads the KEY=VALUE configuration file and returns a Config struct.
// Every key can be overridden by an environment variable named
// EnvPrefix_KEY.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("env")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[strings.ToLower(k)] = true
	}
	for _, k := range v.AllKeys() {
		if !known[k] {
			return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(k))
		}
	}

	cfg := Default()
	for _, key := range keys {
		if !v.IsSet(key) {
			continue
		}
		if err := cfg.setValue(key, strings.TrimSpace(v.GetString(key))); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SPEED":
		c.TopicSpeed = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value)
	case "SPEED_UNIT":
		c.SpeedUnit = strings.ToLower(value)

	// Timing
	case "FRAME_INTERVAL":
		c.FrameInterval, err = parseInt(key, value)
	case "MOCK_PUBLISH_INTERVAL":
		c.MockPublishInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Gauge
	case "GAUGE_BACKEND":
		c.GaugeBackend = strings.ToLower(value)
	case "GAUGE_SCALES":
		c.GaugeScales, err = parseFloats(key, value)
	case "GAUGE_LABELS":
		c.GaugeLabels = splitList(value)
	case "GAUGE_START_DEGREE":
		c.GaugeStartDegree, err = parseFloat(key, value)
	case "GAUGE_STOP_DEGREE":
		c.GaugeStopDegree, err = parseFloat(key, value)
	case "GAUGE_WIDTH":
		c.GaugeWidth, err = parseInt(key, value)
	case "GAUGE_RADIUS":
		c.GaugeRadius, err = parseInt(key, value)
	case "GAUGE_LABEL_HEIGHT":
		c.GaugeLabelHeight, err = parseInt(key, value)
	case "GAUGE_ANCHOR":
		c.GaugeAnchor, err = parsePoint(key, value)
	case "GAUGE_INDICATOR_LENGTH":
		c.GaugeIndicatorLength, err = parseInt(key, value)
	case "GAUGE_INDICATOR_ANCHOR_HEIGHT":
		c.GaugeIndicatorAnchorHeight, err = parseInt(key, value)
	case "GAUGE_STEP":
		c.GaugeStep, err = parseInt(key, value)
	case "GAUGE_BACKGROUND_COLOR":
		c.GaugeBackgroundColor, err = parseColor(key, value)
	case "GAUGE_LABEL_COLOR":
		c.GaugeLabelColor, err = parseColor(key, value)
	case "GAUGE_INDICATOR_COLOR":
		c.GaugeIndicatorColor, err = parseColor(key, value)
	case "GAUGE_BACKGROUND_IMAGE":
		c.GaugeBackgroundImage = value
	case "GAUGE_INDICATOR_IMAGE":
		c.GaugeIndicatorImage = value
	case "GAUGE_TICK_IMAGE":
		c.GaugeTickImage = value
	case "GAUGE_FONT_PATH":
		c.GaugeFontPath = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set and enumerations hold
// a known value.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSpeed == "" {
		return fmt.Errorf("TOPIC_SPEED is required")
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive, got %d", c.FrameInterval)
	}
	if c.MockPublishInterval <= 0 {
		return fmt.Errorf("MOCK_PUBLISH_INTERVAL must be positive, got %d", c.MockPublishInterval)
	}
	switch c.SpeedUnit {
	case "kmh", "mph", "knots":
	default:
		return fmt.Errorf("SPEED_UNIT must be kmh, mph or knots, got %q", c.SpeedUnit)
	}
	switch c.GaugeBackend {
	case "image", "gg":
	default:
		return fmt.Errorf("GAUGE_BACKEND must be image or gg, got %q", c.GaugeBackend)
	}
	if len(c.GaugeScales) == 0 {
		return fmt.Errorf("GAUGE_SCALES must list at least one value")
	}
	if lo, hi := slices.Min(c.GaugeScales), slices.Max(c.GaugeScales); lo >= hi {
		return fmt.Errorf("GAUGE_SCALES must span a range, got %v..%v", lo, hi)
	}
	if c.GaugeLabels != nil && len(c.GaugeLabels) != len(c.GaugeScales) {
		return fmt.Errorf("GAUGE_LABELS has %d entries, GAUGE_SCALES has %d", len(c.GaugeLabels), len(c.GaugeScales))
	}
	return nil
}

// Gauge returns the renderer-independent gauge options. The caller fills
// in NewCanvas, Labeler and Images.
func (c *Config) Gauge() gauge.Config {
	return gauge.Config{
		Scales:                append([]float64(nil), c.GaugeScales...),
		Labels:                append([]string(nil), c.GaugeLabels...),
		Width:                 c.GaugeWidth,
		Arc:                   anglemath.Arc{Start: c.GaugeStartDegree, Stop: c.GaugeStopDegree},
		BackgroundColor:       c.GaugeBackgroundColor,
		BackgroundImagePath:   c.GaugeBackgroundImage,
		LabelColor:            c.GaugeLabelColor,
		LabelHeight:           c.GaugeLabelHeight,
		Anchor:                c.GaugeAnchor,
		Radius:                c.GaugeRadius,
		IndicatorColor:        c.GaugeIndicatorColor,
		IndicatorImagePath:    c.GaugeIndicatorImage,
		IndicatorLength:       c.GaugeIndicatorLength,
		IndicatorAnchorHeight: c.GaugeIndicatorAnchorHeight,
		TickImagePath:         c.GaugeTickImage,
		Step:                  c.GaugeStep,
	}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func parseFloats(key, value string) ([]float64, error) {
	parts := splitList(value)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := parseFloat(key, p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parsePoint reads "x,y".
func parsePoint(key, value string) (image.Point, error) {
	parts := splitList(value)
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid %s %q: want x,y", key, value)
	}
	x, err := parseInt(key, parts[0])
	if err != nil {
		return image.Point{}, err
	}
	y, err := parseInt(key, parts[1])
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

// parseColor reads rrggbb or rrggbbaa, with or without a leading '#'.
func parseColor(key, value string) (color.Color, error) {
	hex := strings.TrimPrefix(value, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("invalid %s %q: want #rrggbb or #rrggbbaa", key, value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if len(hex) == 6 {
		n = n<<8 | 0xff
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
