package render

import (
	"context"
	"sync"
	"time"

	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/mask"
)

// DefaultQuietWindow is how long viewport observations must settle before a
// recompute runs.
const DefaultQuietWindow = 150 * time.Millisecond

// FrameRequester defers a draw to the host's next paint opportunity.
type FrameRequester interface {
	RequestFrame(fn func())
}

// FrameFunc adapts a function to FrameRequester.
type FrameFunc func(fn func())

func (f FrameFunc) RequestFrame(fn func()) { f(fn) }

// FrameQueue is a FrameRequester whose callbacks run when the host calls Flush.
type FrameQueue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *FrameQueue) RequestFrame(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

// Flush runs every queued callback and returns how many ran.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Len returns the number of queued callbacks.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// State is the scheduler state.
type State uint8

const (
	StateIdle State = iota
	StatePending
	StateComputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateComputing:
		return "computing"
	default:
		return "unknown"
	}
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Session     *Session
	Sink        Sink
	Frames      FrameRequester
	QuietWindow time.Duration
	Logger      logger.Logger
}

// Scheduler coalesces viewport changes and mask loads into a single
// recompute followed by one deferred draw.
//
// Observations while Pending replace the pending viewport and restart the
// quiet window. Observations while Computing are held and scheduled once the
// in-flight draw has run.
type Scheduler struct {
	session *Session
	sink    Sink
	frames  FrameRequester
	quiet   time.Duration
	log     logger.Logger

	mu        sync.Mutex
	state     State
	pending   mask.Viewport
	deadline  time.Time
	dirty     bool
	last      mask.Viewport
	haveLast  bool
	frame     *Frame
	wipe      bool
	inFlight  bool
	presented bool
}

// NewScheduler returns an idle scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	quiet := cfg.QuietWindow
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	frames := cfg.Frames
	if frames == nil {
		frames = FrameFunc(func(fn func()) { fn() })
	}
	return &Scheduler{
		session: cfg.Session,
		sink:    cfg.Sink,
		frames:  frames,
		quiet:   quiet,
		log:     log,
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observe records a viewport at time now. Only the last observation within
// the quiet window is used.
func (s *Scheduler) Observe(vp mask.Viewport, now time.Time) {
	s.schedule(vp, now.Add(s.quiet))
}

// Refresh schedules an immediate recompute with the last observed viewport,
// for use after a new mask has been applied. It is a no-op before the first
// observation.
func (s *Scheduler) Refresh(now time.Time) {
	s.mu.Lock()
	vp, ok := s.last, s.haveLast
	s.mu.Unlock()
	if ok {
		s.schedule(vp, now)
	}
}

func (s *Scheduler) schedule(vp mask.Viewport, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.haveLast = vp, true
	s.pending = vp
	s.deadline = deadline
	switch s.state {
	case StateIdle, StatePending:
		s.state = StatePending
	case StateComputing:
		s.dirty = true
	}
}

// Tick runs the pending recompute if its quiet window has elapsed at now and
// requests a deferred draw. It reports whether a recompute ran.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if s.state != StatePending || now.Before(s.deadline) {
		s.mu.Unlock()
		return false
	}
	s.state = StateComputing
	vp := s.pending
	s.mu.Unlock()

	frame, ok := s.session.Render(ctx, vp)

	s.mu.Lock()
	switch {
	case ok:
		s.frame, s.wipe = frame, false
	case vp.Ready() && s.presented:
		// The mask went away after something was drawn.
		s.frame, s.wipe = nil, true
	default:
		// Not laid out or nothing loaded yet: defer without drawing.
		s.settle()
		s.mu.Unlock()
		return true
	}
	request := !s.inFlight
	s.inFlight = true
	s.mu.Unlock()

	if request {
		s.frames.RequestFrame(s.paint)
	}
	return true
}

// Deadline returns when the pending recompute becomes due.
func (s *Scheduler) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.state == StatePending
}

func (s *Scheduler) paint() {
	s.mu.Lock()
	frame, wipe := s.frame, s.wipe
	s.frame, s.wipe = nil, false
	s.inFlight = false
	s.mu.Unlock()

	if frame != nil || wipe {
		if err := Draw(s.sink, frame); err != nil {
			s.log.Warn("overlay draw failed", "err", err)
		} else {
			s.mu.Lock()
			s.presented = frame != nil
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.settle()
	s.mu.Unlock()
}

// settle leaves Computing. Caller holds s.mu.
func (s *Scheduler) settle() {
	if s.dirty {
		s.dirty = false
		s.state = StatePending
		return
	}
	s.state = StateIdle
}

// Run drives the scheduler from a stream of viewport observations, ticking
// at interval, until ctx is done or viewports is closed.
func (s *Scheduler) Run(ctx context.Context, viewports <-chan mask.Viewport, interval time.Duration) error {
	if interval <= 0 {
		interval = s.quiet / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case vp, ok := <-viewports:
			if !ok {
				return nil
			}
			s.Observe(vp, time.Now())
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
