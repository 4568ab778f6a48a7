// Package render owns per-viewer state: the decoded mask, the render cache,
// the resize scheduler and the sinks overlays are presented to.
package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/artorize/internal/events"
	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/mask"
	"github.com/samcharles93/artorize/pkg/sac"
)

// ErrStale is returned when a load result arrives after a newer one was applied.
var ErrStale = errors.New("render: stale load result")

// Config configures a Session.
type Config struct {
	ID      string
	Options mask.Options
	Logger  logger.Logger
}

// Stats counts pipeline work done by a session.
type Stats struct {
	Decodes    int
	Failures   int
	Stale      int
	Resamples  int
	Composites int
	CacheHits  int
}

// Frame is one overlay ready to present.
type Frame struct {
	Image    *mask.Image
	Plan     mask.Plan
	Viewport mask.Viewport
}

// Session is the per-viewer pipeline context. Loads are ordered by sequence
// number: a result is applied only if it is newer than the last applied one.
type Session struct {
	id   string
	log  logger.Logger
	opts mask.Options

	mu      sync.Mutex
	issued  uint64
	applied uint64
	gen     uint64
	src     sac.SampleSource
	width   int
	height  int
	hasMask bool
	cache   RenderCache
	stats   Stats
}

// NewSession returns an empty session. Zero options fall back to
// mask.DefaultOptions.
func NewSession(cfg Config) *Session {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	opts := cfg.Options
	if opts == (mask.Options{}) {
		opts = mask.DefaultOptions()
	}
	return &Session{
		id:   id,
		log:  log.With("session", id),
		opts: opts,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Begin reserves the next load sequence number.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply decodes data for load seq. naturalWidth and naturalHeight give the
// size of the image the mask belongs to and are used only when the container
// carries no shape hint.
func (s *Session) Apply(ctx context.Context, seq uint64, data []byte, naturalWidth, naturalHeight int) error {
	c, err := sac.DecodeAuto(data)
	if err != nil {
		events.DecodeComplete(ctx, s.id, seq, "", len(data), err)
		return s.Fail(ctx, seq, err)
	}
	events.DecodeComplete(ctx, s.id, seq, c.Mode().String(), len(data), nil)
	return s.ApplyContainer(ctx, seq, c, naturalWidth, naturalHeight)
}

// ApplyContainer installs an already decoded container for load seq.
func (s *Session) ApplyContainer(ctx context.Context, seq uint64, c *sac.Container, naturalWidth, naturalHeight int) error {
	w, h, err := c.Shape(naturalWidth, naturalHeight)
	if err != nil {
		return s.Fail(ctx, seq, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.stats.Stale++
		s.log.Warn("dropping stale mask", "seq", seq, "applied", s.applied)
		events.StaleDropped(ctx, s.id, seq)
		return ErrStale
	}
	s.applied = seq
	s.gen++
	s.src = c.Source()
	s.width, s.height = w, h
	s.hasMask = true
	s.stats.Decodes++
	s.cache.Invalidate()
	s.log.Debug("mask applied", "seq", seq, "mode", c.Mode().String(), "width", w, "height", h)
	return nil
}

// Fail records a failed load. If seq is the newest result the overlay is
// dropped so the degraded image shows alone. err is returned unchanged, or
// ErrStale if a newer result was already applied.
func (s *Session) Fail(ctx context.Context, seq uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.stats.Stale++
		events.StaleDropped(ctx, s.id, seq)
		return ErrStale
	}
	s.applied = seq
	s.gen++
	s.src = nil
	s.hasMask = false
	s.stats.Failures++
	s.cache.Invalidate()
	s.log.Warn("mask unavailable, rendering without overlay", "seq", seq, "err", err)
	return err
}

// HasMask reports whether a decoded mask is installed.
func (s *Session) HasMask() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMask
}

// Render produces the overlay for vp. It returns false, doing nothing, until
// both a mask is installed and the viewport has non-zero size.
func (s *Session) Render(ctx context.Context, vp mask.Viewport) (*Frame, bool) {
	if !vp.Ready() {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasMask {
		return nil, false
	}

	plan := mask.PlanResolution(s.width, s.height, vp)
	if img, ok := s.cache.Get(s.gen, plan.RenderWidth, plan.RenderHeight); ok {
		s.stats.CacheHits++
		events.RenderCacheHit(ctx, s.id, plan.RenderWidth, plan.RenderHeight)
		return &Frame{Image: img, Plan: plan, Viewport: vp}, true
	}

	start := time.Now()
	src := s.src
	if plan.Downsample {
		src = mask.ResampleSource(src, s.width, s.height, plan.RenderWidth, plan.RenderHeight)
		s.stats.Resamples++
	}
	img := mask.Composite(src, plan.RenderWidth, plan.RenderHeight, s.opts)
	s.stats.Composites++
	s.cache.Put(s.gen, plan.RenderWidth, plan.RenderHeight, img)

	elapsed := time.Since(start)
	events.RenderComplete(ctx, s.id, plan.RenderWidth, plan.RenderHeight, elapsed)
	s.log.Debug("overlay composited",
		"render_width", plan.RenderWidth,
		"render_height", plan.RenderHeight,
		"downsampled", plan.Downsample,
		"mono", img.Mono,
		"duration", elapsed,
	)
	return &Frame{Image: img, Plan: plan, Viewport: vp}, true
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
