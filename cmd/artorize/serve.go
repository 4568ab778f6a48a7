package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/events"
	"github.com/samcharles93/artorize/internal/fetch"
	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/proxy"
)

func serveCmd() *cli.Command {
	var (
		s           serveSettings
		maxAge      time.Duration
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve mask containers through a caching proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &s.addr,
			},
			&cli.StringFlag{
				Name:        "masks-dir",
				Usage:       "serve containers from this directory (or $" + envMasksDir + ")",
				Destination: &s.masksDir,
			},
			&cli.StringFlag{
				Name:        "upstream",
				Usage:       "forward to this base URL instead of a directory",
				Destination: &s.upstream,
			},
			&cli.Float64Flag{
				Name:        "upstream-rps",
				Usage:       "max upstream requests per second (0 for unlimited)",
				Value:       20,
				Destination: &s.upstreamRPS,
			},
			&cli.Int64Flag{
				Name:        "cache-entries",
				Usage:       "containers kept in memory (0 disables caching)",
				Value:       256,
				Destination: &s.cacheEntries,
			},
			&cli.DurationFlag{
				Name:        "max-age",
				Usage:       "Cache-Control max-age sent to clients",
				Value:       time.Hour,
				Destination: &maxAge,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &s)
			stopEvents := events.LogFailures(log)
			defer stopEvents()

			backend, err := newBackend(s, log)
			if err != nil {
				return err
			}

			server := proxy.NewServer(proxy.Config{
				Backend: backend,
				Cache:   proxy.NewCache(int(s.cacheEntries)),
				MaxAge:  maxAge,
				Logger:  log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting mask proxy", "address", s.addr)
			sc := echo.StartConfig{
				Address: s.addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

func newBackend(s serveSettings, log logger.Logger) (proxy.Backend, error) {
	if s.upstream != "" {
		if !isURL(s.upstream) {
			return nil, errors.New("serve: --upstream must be an http(s) URL")
		}
		log.Info("proxying upstream", "url", s.upstream, "rps", s.upstreamRPS)
		return proxy.NewHTTPBackend(s.upstream, fetch.NewClient(30*time.Second, log), s.upstreamRPS), nil
	}

	dir := resolveMasksDir(s.masksDir)
	if dir == "" {
		return nil, errors.New("serve: --masks-dir or --upstream is required unless " + envMasksDir + " is set")
	}
	masks, err := discoverMasks(dir)
	if err != nil {
		return nil, err
	}
	log.Info("serving masks", "dir", dir, "count", len(masks))
	return proxy.DirBackend{Root: dir}, nil
}
