package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/pixelgenie/internal/opc"
)

// Strip is a straight run of LEDs between two points (2D or 3D).
type Strip struct {
	Start int       `yaml:"start"`
	Count int       `yaml:"count"`
	From  []float64 `yaml:"from"`
	To    []float64 `yaml:"to"`
}

type SPI struct {
	Port   string `yaml:"port"`    // periph spireg name, "" for the first port
	FreqHz int64  `yaml:"freq_hz"` // e.g. 800000
}

// Config is the process configuration. Fields tagged env can be overridden
// from the environment after the file is read.
type Config struct {
	Driver   string `yaml:"driver" env:"GENIE_DRIVER"` // "opc" | "spi" | "sim"
	LogLevel string `yaml:"log_level" env:"GENIE_LOG_LEVEL"`

	OPCAddr        string        `yaml:"opc_addr" env:"GENIE_OPC_ADDR"`
	LongConnection bool          `yaml:"long_connection" env:"GENIE_LONG_CONNECTION"`
	Interpolation  bool          `yaml:"interpolation" env:"GENIE_INTERPOLATION"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`

	ControlAddr string `yaml:"control_addr" env:"GENIE_CONTROL_ADDR"`

	Interval     time.Duration `yaml:"interval" env:"GENIE_INTERVAL"`
	Channel      int           `yaml:"channel"`
	ColorScale   float64       `yaml:"color_scale" env:"GENIE_COLOR_SCALE"`
	TimeScale    float64       `yaml:"time_scale"`
	WhiteCap     float64       `yaml:"white_cap"`
	ActiveEffect string        `yaml:"active_effect" env:"GENIE_ACTIVE_EFFECT"`
	NoiseSeed    int64         `yaml:"noise_seed"`

	LayoutOut string    `yaml:"layout_out,omitempty" env:"GENIE_LAYOUT_OUT"`
	Offset    []float64 `yaml:"offset,omitempty"` // shifts every mapped position after the strips are placed
	Strips    []Strip   `yaml:"strips"`

	SPI SPI `yaml:"spi,omitempty"`
}

// Default returns the configuration for the reference installation: twelve
// vertical strips of twelve LEDs spread over four controller channels of 64
// plus a short crown strip.
func Default() *Config {
	return &Config{
		Driver:         "opc",
		LogLevel:       "info",
		OPCAddr:        "localhost:7890",
		LongConnection: true,
		Interpolation:  true,
		DialTimeout:    2 * time.Second,
		ControlAddr:    ":8765",
		Interval:       50 * time.Millisecond,
		ColorScale:     255,
		TimeScale:      1,
		ActiveEffect:   "colorful_noise",
		Strips: []Strip{
			{Start: 0, Count: 12, From: []float64{11, 2}, To: []float64{11, 24}},
			{Start: 12, Count: 12, From: []float64{9, 23}, To: []float64{9, 1}},
			{Start: 24, Count: 12, From: []float64{7, 2}, To: []float64{7, 24}},

			{Start: 64, Count: 12, From: []float64{5, 23}, To: []float64{5, 1}},
			{Start: 76, Count: 12, From: []float64{3, 2}, To: []float64{3, 24}},
			{Start: 88, Count: 12, From: []float64{1, 23}, To: []float64{1, 1}},

			{Start: 128, Count: 12, From: []float64{-1, 2}, To: []float64{-1, 24}},
			{Start: 140, Count: 12, From: []float64{-3, 23}, To: []float64{-3, 1}},
			{Start: 152, Count: 12, From: []float64{-5, 2}, To: []float64{-5, 24}},

			{Start: 192, Count: 12, From: []float64{-7, 23}, To: []float64{-7, 1}},
			{Start: 204, Count: 12, From: []float64{-9, 2}, To: []float64{-9, 24}},
			{Start: 216, Count: 12, From: []float64{-11, 23}, To: []float64{-11, 1}},

			{Start: 228, Count: 6, From: []float64{0, 26}, To: []float64{0, 38}},
		},
		SPI: SPI{FreqHz: 800000},
	}
}

// Load reads path over Default and then applies environment overrides.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ApplyEnv(c); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// LoadOrDefault is Load, except that a missing file yields Default with
// environment overrides applied. The bool reports whether the file was read.
// A file that exists but does not parse or validate is an error.
func LoadOrDefault(path string) (*Config, bool, error) {
	c, err := Load(path)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	c = Default()
	if err := ApplyEnv(c); err != nil {
		return nil, false, err
	}
	return c, false, c.Validate()
}

// ApplyEnv overrides c from GENIE_* environment variables.
func ApplyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var ErrInvalid = errors.New("invalid config")

func (c *Config) Validate() error {
	switch c.Driver {
	case "opc", "spi", "sim":
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalid)
	}
	if c.Channel < 0 || c.Channel > 255 {
		return fmt.Errorf("%w: channel %d not in 0..255", ErrInvalid, c.Channel)
	}
	if c.Driver == "opc" && c.OPCAddr == "" {
		return fmt.Errorf("%w: opc_addr is required", ErrInvalid)
	}
	if n := len(c.Offset); n != 0 && n != 2 && n != 3 {
		return fmt.Errorf("%w: offset needs 2 or 3 components, got %d", ErrInvalid, n)
	}
	for i, s := range c.Strips {
		if s.Start < 0 || s.Count < 0 {
			return fmt.Errorf("%w: strip %d has negative start or count", ErrInvalid, i)
		}
		if c.Driver == "opc" && s.Start+s.Count > opc.MaxPixels {
			return fmt.Errorf("%w: strip %d ends at %d, an OPC frame holds at most %d pixels",
				ErrInvalid, i, s.Start+s.Count, opc.MaxPixels)
		}
	}
	return nil
}
