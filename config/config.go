// Package config loads the renderer settings from an optional dotenv file
// and the process environment. Environment variables win over the file.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment keys, also used in dotenv files.
const (
	KeyTitle          = "VKW_TITLE"
	KeyWidth          = "VKW_WIDTH"
	KeyHeight         = "VKW_HEIGHT"
	KeyFramesInFlight = "VKW_FRAMES_IN_FLIGHT"
	KeyValidation     = "VKW_VALIDATION"
	KeyFenceTimeout   = "VKW_FENCE_TIMEOUT"
	KeyLogLevel       = "VKW_LOG_LEVEL"
	KeyLogFormat      = "VKW_LOG_FORMAT"
)

// MaxFramesInFlight is the largest accepted frame ring.
const MaxFramesInFlight = 3

// Config holds everything a program needs to open a window and render.
type Config struct {
	Title  string
	Width  int
	Height int

	FramesInFlight int
	Validation     bool

	// FenceTimeout bounds GPU waits. Zero waits forever.
	FenceTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Title:          "Vulkan Wrappers: Clear Screen",
		Width:          1024,
		Height:         768,
		FramesInFlight: 2,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads the dotenv file at path, when path is not empty, then lets the
// environment override it and validates the result.
func Load(path string) (Config, error) {
	file := map[string]string{}
	if path != "" {
		var err error
		file, err = godotenv.Read(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	lookup := func(key, fallback string) string {
		if v, ok := file[key]; ok {
			fallback = v
		}
		return strings.TrimSpace(envy.Get(key, fallback))
	}

	c := Default()
	c.Title = lookup(KeyTitle, c.Title)
	c.LogLevel = lookup(KeyLogLevel, c.LogLevel)
	c.LogFormat = lookup(KeyLogFormat, c.LogFormat)

	var err error
	if c.Width, err = parseInt(KeyWidth, lookup(KeyWidth, strconv.Itoa(c.Width))); err != nil {
		return Config{}, err
	}
	if c.Height, err = parseInt(KeyHeight, lookup(KeyHeight, strconv.Itoa(c.Height))); err != nil {
		return Config{}, err
	}
	c.FramesInFlight, err = parseInt(
		KeyFramesInFlight,
		lookup(KeyFramesInFlight, strconv.Itoa(c.FramesInFlight)),
	)
	if err != nil {
		return Config{}, err
	}

	validation := lookup(KeyValidation, strconv.FormatBool(c.Validation))
	if c.Validation, err = strconv.ParseBool(validation); err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", KeyValidation)
	}

	if timeout := lookup(KeyFenceTimeout, ""); timeout != "" {
		if c.FenceTimeout, err = time.ParseDuration(timeout); err != nil {
			return Config{}, errors.Wrapf(err, "parsing %s", KeyFenceTimeout)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", key)
	}
	return n, nil
}

// Validate checks that the configuration can be used.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight {
		return errors.Newf(
			"frames in flight %d must be between 1 and %d",
			c.FramesInFlight, MaxFramesInFlight,
		)
	}
	if c.FenceTimeout < 0 {
		return errors.Newf("fence timeout %s must not be negative", c.FenceTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Newf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// ConfigureLogger applies the log level and format to l.
func (c Config) ConfigureLogger(l *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	l.SetLevel(level)

	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
