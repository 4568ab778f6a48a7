// Package proxy is a thin caching proxy in front of mask storage.
package proxy

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/pkg/sac"
)

const headerRequestID = "X-Request-Id"

// Config configures a Server.
type Config struct {
	Backend Backend
	Cache   *Cache
	MaxAge  time.Duration
	Logger  logger.Logger
}

type Server struct {
	backend Backend
	cache   *Cache
	maxAge  time.Duration
	log     logger.Logger
}

func NewServer(cfg Config) *Server {
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(0)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		backend: cfg.Backend,
		cache:   cache,
		maxAge:  cfg.MaxAge,
		log:     log,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	e.GET("/healthz", s.handleHealth)
	e.GET("/masks/*", s.handleMask)
	e.GET("/v1/inspect/*", s.handleInspect)
	e.GET("/v1/preview/*", s.handlePreview)
}

func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(headerRequestID, id)
		return next(c)
	}
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]any{
		"status":  "ok",
		"entries": s.cache.Len(),
	})
}

func (s *Server) handleMask(c *echo.Context) error {
	key := c.Param("*")
	data, hit, err := s.load(c, key)
	if err != nil {
		return s.writeLoadError(c, key, err)
	}

	res := c.Response()
	tag := etag(data)
	res.Header().Set("ETag", tag)
	if hit {
		res.Header().Set("X-Cache", "HIT")
	} else {
		res.Header().Set("X-Cache", "MISS")
	}
	if s.maxAge > 0 {
		res.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.maxAge.Seconds())))
	}
	if match := c.Request().Header.Get("If-None-Match"); match != "" && match == tag {
		res.WriteHeader(http.StatusNotModified)
		return nil
	}
	if sac.IsCompressed(data) {
		res.Header().Set("Content-Encoding", "zstd")
	}
	res.Header().Set(echo.HeaderContentType, "application/octet-stream")
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(data)
	return err
}

func (s *Server) handleInspect(c *echo.Context) error {
	key := c.Param("*")
	data, _, err := s.load(c, key)
	if err != nil {
		return s.writeLoadError(c, key, err)
	}
	container, err := sac.DecodeAuto(data)
	if err != nil {
		kind := sac.KindOf(err)
		if kind == 0 {
			return writeError(c, http.StatusBadGateway, "upstream_error", err.Error())
		}
		return writeError(c, http.StatusUnprocessableEntity, kind.String(), err.Error())
	}
	return writeJSON(c, http.StatusOK, sac.Summarize(container, len(data), sac.IsCompressed(data)))
}

func (s *Server) load(c *echo.Context, key string) ([]byte, bool, error) {
	if data, ok := s.cache.Get(key); ok {
		return data, true, nil
	}
	if s.backend == nil {
		return nil, false, errors.New("proxy: no backend configured")
	}
	data, err := s.backend.Get(c.Request().Context(), key)
	if err != nil {
		return nil, false, err
	}
	s.cache.Put(key, data)
	return data, false, nil
}

func (s *Server) writeLoadError(c *echo.Context, key string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return writeError(c, http.StatusNotFound, "not_found", "no mask for "+strings.TrimPrefix(key, "/"))
	}
	s.log.Warn("backend request failed", "key", key, "err", err)
	return writeError(c, http.StatusBadGateway, "upstream_error", err.Error())
}

func writeError(c *echo.Context, status int, kind, msg string) error {
	return writeJSON(c, status, map[string]any{
		"error": map[string]string{
			"type":    kind,
			"message": msg,
		},
	})
}

func writeJSON(c *echo.Context, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(body)
	return err
}

func etag(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf(`"%016x"`, h.Sum64())
}
