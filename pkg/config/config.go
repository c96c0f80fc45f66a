package config

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	FrameRate         string `mapstructure:"frameRate"`
	VideoSize         string `mapstructure:"videoSize"`
	OffsetX           int    `mapstructure:"offsetX"`
	OffsetY           int    `mapstructure:"offsetY"`
	DrawMouse         bool   `mapstructure:"drawMouse"`
	ShowRegion        bool   `mapstructure:"showRegion"`
	DisplayIndex      int    `mapstructure:"displayIndex"`
	RtpPayloadMaxSize int    `mapstructure:"rtpPayloadMaxSize"`
	ResizeWidth       uint   `mapstructure:"resizeWidth"`
	ResizeHeight      uint   `mapstructure:"resizeHeight"`
	JpegQuality       int    `mapstructure:"jpegQuality"`
	RtspPort          int    `mapstructure:"rtspPort"`
	RtspPath          string `mapstructure:"rtspPath"`
	LogLevel          string `mapstructure:"logLevel"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("frameRate", "ntsc")
	viper.SetDefault("rtpPayloadMaxSize", 1400)
	viper.SetDefault("resizeWidth", 1280)
	viper.SetDefault("resizeHeight", 720)
	viper.SetDefault("jpegQuality", 75)
	viper.SetDefault("rtspPort", 8554)
	viper.SetDefault("rtspPath", "screen")
	viper.SetDefault("drawMouse", true)
	viper.SetDefault("logLevel", "info")

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, _, err := c.ParseFrameRate(); err != nil {
		return err
	}
	if _, err := c.CaptureRect(); err != nil {
		return err
	}
	if c.JpegQuality < 1 || c.JpegQuality > 100 {
		return fmt.Errorf("config: jpegQuality %d outside 1-100", c.JpegQuality)
	}
	if c.RtpPayloadMaxSize < 64 {
		return fmt.Errorf("config: rtpPayloadMaxSize %d too small", c.RtpPayloadMaxSize)
	}
	if c.RtspPort < 1 || c.RtspPort > 65535 {
		return fmt.Errorf("config: invalid rtspPort %d", c.RtspPort)
	}
	return nil
}

// rate abbreviations in the usual broadcast shorthand
var namedRates = map[string][2]int{
	"ntsc": {30000, 1001},
	"pal":  {25, 1},
	"film": {24, 1},
}

// ParseFrameRate parses frameRate as a named rate ("ntsc"), an integer
// ("30") or a rational ("30000/1001").
func (c *Config) ParseFrameRate() (num, den int, err error) {
	s := strings.TrimSpace(c.FrameRate)
	if r, ok := namedRates[strings.ToLower(s)]; ok {
		return r[0], r[1], nil
	}
	if n, d, found := strings.Cut(s, "/"); found {
		num, err = strconv.Atoi(n)
		if err == nil {
			den, err = strconv.Atoi(d)
		}
	} else {
		den = 1
		num, err = strconv.Atoi(s)
	}
	if err != nil || num <= 0 || den <= 0 {
		return 0, 0, fmt.Errorf("config: invalid frameRate %q", c.FrameRate)
	}
	return num, den, nil
}

// CaptureRect builds the capture area from videoSize and the offsets. The
// zero rectangle means the full display; bounds checking against the actual
// display belongs to the capture session.
func (c *Config) CaptureRect() (image.Rectangle, error) {
	s := strings.TrimSpace(c.VideoSize)
	if s == "" {
		return image.Rectangle{}, nil
	}
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if found {
		w, werr := strconv.Atoi(ws)
		h, herr := strconv.Atoi(hs)
		if werr == nil && herr == nil && w > 0 && h > 0 {
			return image.Rect(c.OffsetX, c.OffsetY, c.OffsetX+w, c.OffsetY+h), nil
		}
	}
	return image.Rectangle{}, fmt.Errorf("config: invalid videoSize %q, want WxH", c.VideoSize)
}
