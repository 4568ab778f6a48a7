package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/events"
	"github.com/samcharles93/artorize/internal/fetch"
	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/mask"
	"github.com/samcharles93/artorize/internal/render"
)

func renderCmd() *cli.Command {
	var (
		maskRef   string
		imageRef  string
		display   string
		natural   string
		out       string
		fetchTime time.Duration
	)

	return &cli.Command{
		Name:  "render",
		Usage: "Composite a mask over its degraded image and write a PNG",
		Flags: append(overlayFlags(),
			&cli.StringFlag{
				Name:        "mask",
				Usage:       "mask file or URL (default: image URL + mask suffix)",
				Destination: &maskRef,
			},
			&cli.StringFlag{
				Name:        "image",
				Aliases:     []string{"i"},
				Usage:       "degraded base image file or URL (PNG or JPEG)",
				Destination: &imageRef,
			},
			&cli.StringFlag{
				Name:        "display",
				Usage:       "display box in logical pixels, WIDTHxHEIGHT (default: image size)",
				Destination: &display,
			},
			&cli.StringFlag{
				Name:        "natural",
				Usage:       "natural image size for masks without a shape hint, WIDTHxHEIGHT (default: image size)",
				Destination: &natural,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output PNG path (default ./out/render.png or $" + envOutDir + ")",
				Destination: &out,
			},
			&cli.DurationFlag{
				Name:        "fetch-timeout",
				Usage:       "timeout for remote mask and image requests",
				Value:       30 * time.Second,
				Destination: &fetchTime,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyOverlayConfig(cmd, LoadConfig())
			stopEvents := events.LogFailures(log)
			defer stopEvents()

			opts, err := overlayOptions()
			if err != nil {
				return err
			}
			client := fetch.NewClient(fetchTime, log)

			base, err := loadBase(ctx, client, imageRef)
			if err != nil {
				return err
			}

			vp, err := renderViewport(display, base)
			if err != nil {
				return err
			}
			natW, natH, err := naturalSize(natural, base)
			if err != nil {
				return err
			}

			session := render.NewSession(render.Config{Options: opts, Logger: log})
			if err := loadMask(ctx, session, client, maskRef, imageRef, natW, natH); err != nil {
				// The overlay is dropped and the base image is rendered alone.
				log.Warn("continuing without overlay", "err", err)
			}

			path, _, err := resolveOut("render", out, ".png")
			if err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			written, err := renderOnce(ctx, session, vp, base, f, log)
			if err != nil {
				return err
			}
			if !written {
				return errors.New("render: no mask and no base image, nothing to write")
			}

			st := session.Stats()
			log.Info("render complete",
				"out", path,
				"session", session.ID(),
				"overlay", session.HasMask(),
				"decodes", st.Decodes,
				"failures", st.Failures,
				"resamples", st.Resamples,
			)
			return f.Close()
		},
	}
}

func overlayOptions() (mask.Options, error) {
	opts := mask.DefaultOptions()
	mode, err := mask.ParseColorMode(colorMode)
	if err != nil {
		return opts, err
	}
	c, err := mask.ParseHexColor(overlayColor)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.Color = c
	opts.Opacity = opacity
	return opts, nil
}

func loadBase(ctx context.Context, client *fetch.Client, ref string) (image.Image, error) {
	if ref == "" {
		return nil, nil
	}
	var (
		data []byte
		err  error
	)
	if isURL(ref) {
		data, err = client.Fetch(ctx, ref)
	} else {
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("load base image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode base image %s: %w", ref, err)
	}
	return img, nil
}

func renderViewport(display string, base image.Image) (mask.Viewport, error) {
	vp := mask.Viewport{PixelDensity: pixelDensity}
	if display != "" {
		w, h, err := parseSize(display)
		if err != nil {
			return vp, err
		}
		vp.DisplayWidth, vp.DisplayHeight = w, h
		return vp, nil
	}
	if base == nil {
		return vp, errors.New("render: --display is required without --image")
	}
	b := base.Bounds()
	vp.DisplayWidth, vp.DisplayHeight = float64(b.Dx()), float64(b.Dy())
	return vp, nil
}

func naturalSize(natural string, base image.Image) (int, int, error) {
	if natural != "" {
		w, h, err := parseSize(natural)
		if err != nil {
			return 0, 0, err
		}
		return int(w), int(h), nil
	}
	if base == nil {
		return 0, 0, nil
	}
	b := base.Bounds()
	return b.Dx(), b.Dy(), nil
}

// loadMask installs the mask into session. Failures leave the session
// without an overlay and are returned for logging only.
func loadMask(ctx context.Context, session *render.Session, client *fetch.Client, maskRef, imageRef string, natW, natH int) error {
	switch {
	case maskRef == "" && isURL(imageRef):
		loader := render.Loader{Session: session, Fetcher: client, Suffix: maskSuffix}
		return loader.Load(ctx, imageRef, natW, natH)
	case maskRef == "":
		return errors.New("render: --mask is required unless --image is a URL")
	}

	seq := session.Begin()
	var (
		data []byte
		err  error
	)
	if isURL(maskRef) {
		data, err = client.Fetch(ctx, maskRef)
	} else {
		data, err = os.ReadFile(maskRef)
	}
	if err != nil {
		return session.Fail(ctx, seq, err)
	}
	return session.Apply(ctx, seq, data, natW, natH)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// renderOnce drives one observation through the scheduler and flushes the
// deferred draw. Without an overlay the base image is written alone. It
// reports whether anything was written.
func renderOnce(ctx context.Context, session *render.Session, vp mask.Viewport, base image.Image, w io.Writer, log logger.Logger) (bool, error) {
	cw := &countingWriter{w: w}
	sink := &render.PNGSink{Out: cw, Base: base}
	frames := &render.FrameQueue{}
	sched := render.NewScheduler(render.SchedulerConfig{
		Session:     session,
		Sink:        sink,
		Frames:      frames,
		QuietWindow: quietWindow,
		Logger:      log,
	})

	now := time.Now()
	sched.Observe(vp, now)
	if deadline, ok := sched.Deadline(); ok {
		sched.Tick(ctx, deadline)
	}
	frames.Flush()

	if cw.n > 0 {
		return true, nil
	}
	if base == nil {
		return false, nil
	}
	devW, devH := vp.DeviceSize()
	sink.SetDisplaySize(vp, devW, devH)
	if err := sink.Clear(); err != nil {
		return false, err
	}
	return cw.n > 0, nil
}
