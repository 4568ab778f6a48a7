package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/patterns"
	"github.com/samcharles93/artorize/pkg/sac"
)

func encodeCmd() *cli.Command {
	var (
		pattern  string
		width    int64
		height   int64
		dual     bool
		compress bool
		out      string
		imageOut string
	)

	return &cli.Command{
		Name:  "encode",
		Usage: "Generate a synthetic mask and write it as a .sac container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "pattern",
				Aliases:     []string{"p"},
				Usage:       "mask pattern (" + strings.Join(patterns.Names(), ", ") + ")",
				Value:       "radial",
				Destination: &pattern,
			},
			&cli.Int64Flag{
				Name:        "width",
				Usage:       "mask width in samples",
				Value:       patterns.DefaultWidth,
				Destination: &width,
			},
			&cli.Int64Flag{
				Name:        "height",
				Usage:       "mask height in samples",
				Value:       patterns.DefaultHeight,
				Destination: &height,
			},
			&cli.BoolFlag{
				Name:        "dual",
				Usage:       "store two arrays even when they are identical",
				Destination: &dual,
			},
			&cli.BoolFlag{
				Name:        "zstd",
				Usage:       "zstd-compress the container (.sac.zst)",
				Destination: &compress,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (default ./out/<pattern>.sac or $" + envOutDir + ")",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "image",
				Usage:       "also write a matching gradient base image as PNG to this path",
				Destination: &imageOut,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			m, err := patterns.Generate(pattern, int(width), int(height))
			if err != nil {
				return err
			}
			if dual {
				m = m.Dual()
			}

			ext := ".sac"
			if compress {
				ext += ".zst"
			}
			path, defaulted, err := resolveOut(pattern, out, ext)
			if err != nil {
				return err
			}
			if err := sac.WriteFile(path, m.A, m.B, m.Width, m.Height, compress); err != nil {
				return fmt.Errorf("encode %s: %w", pattern, err)
			}

			st, err := os.Stat(path)
			if err != nil {
				return err
			}
			mode := sac.ModeSingle
			if m.B != nil {
				mode = sac.ModeDual
			}
			log.Info("mask written",
				"path", path,
				"defaulted", defaulted,
				"pattern", pattern,
				"mode", mode.String(),
				"width", m.Width,
				"height", m.Height,
				"size", formatBytes(uint64(st.Size())),
			)

			if imageOut != "" {
				if err := writeTestImage(imageOut, m.Width, m.Height); err != nil {
					return err
				}
				log.Info("base image written", "path", imageOut, "width", m.Width, "height", m.Height)
			}
			return nil
		},
	}
}

func writeTestImage(path string, width, height int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create image dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, patterns.TestImage(width, height)); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode image %s: %w", path, err)
	}
	return f.Close()
}
