package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/fetch"
	"github.com/samcharles93/artorize/internal/render"
)

var (
	logLevel  string
	logFormat string
	debug     bool

	maskSuffix   string
	opacity      float64
	colorMode    string
	overlayColor string
	quietWindow  time.Duration
	pixelDensity float64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func overlayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mask-suffix",
			Usage:       "suffix appended to an image URL to locate its mask",
			Value:       fetch.DefaultSuffix,
			Destination: &maskSuffix,
		},
		&cli.Float64Flag{
			Name:        "opacity",
			Usage:       "overlay opacity multiplier",
			Value:       1,
			Destination: &opacity,
		},
		&cli.StringFlag{
			Name:        "color-mode",
			Usage:       "overlay colouring (overlay, diagnostic)",
			Value:       "overlay",
			Destination: &colorMode,
		},
		&cli.StringFlag{
			Name:        "overlay-color",
			Usage:       "overlay colour as #RGB, #RRGGBB or #RRGGBBAA",
			Value:       "#ffffff",
			Destination: &overlayColor,
		},
		&cli.DurationFlag{
			Name:        "quiet-window",
			Usage:       "resize debounce window",
			Value:       render.DefaultQuietWindow,
			Destination: &quietWindow,
		},
		&cli.Float64Flag{
			Name:        "dpr",
			Aliases:     []string{"pixel-density"},
			Usage:       "device pixel ratio of the render target",
			Value:       1,
			Destination: &pixelDensity,
		},
	}
}
