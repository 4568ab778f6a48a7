package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samcharles93/artorize/internal/mask"
	"github.com/samcharles93/artorize/pkg/sac"
)

type schedulerHarness struct {
	session *Session
	sink    *MemorySink
	frames  *FrameQueue
	sched   *Scheduler
	t0      time.Time
}

func newHarness(t *testing.T, w, h int) *schedulerHarness {
	t.Helper()
	s := newTestSession()
	if w > 0 {
		if err := s.Apply(context.Background(), s.Begin(), sac.MustEncode(filled(w*h, 50), nil, w, h), 0, 0); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	sink := &MemorySink{}
	frames := &FrameQueue{}
	return &schedulerHarness{
		session: s,
		sink:    sink,
		frames:  frames,
		sched: NewScheduler(SchedulerConfig{
			Session: s,
			Sink:    sink,
			Frames:  frames,
			Logger:  quietLogger(),
		}),
		t0: time.Unix(1_700_000_000, 0),
	}
}

func (h *schedulerHarness) at(d time.Duration) time.Time { return h.t0.Add(d) }

func TestSchedulerCoalescesResizes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 400, 300)
	ctx := context.Background()

	h.sched.Observe(vp(300, 300), h.at(0))
	h.sched.Observe(vp(150, 150), h.at(50*time.Millisecond))
	h.sched.Observe(vp(100, 75), h.at(100*time.Millisecond))
	if h.sched.State() != StatePending {
		t.Fatalf("state: got %s want pending", h.sched.State())
	}

	if h.sched.Tick(ctx, h.at(200*time.Millisecond)) {
		t.Fatalf("tick inside the quiet window must not recompute")
	}
	if !h.sched.Tick(ctx, h.at(250*time.Millisecond)) {
		t.Fatalf("tick after the quiet window should recompute")
	}
	if h.sched.State() != StateComputing {
		t.Fatalf("state: got %s want computing", h.sched.State())
	}
	if presents, _, _ := h.sink.Snapshot(); presents != 0 {
		t.Fatalf("draw must wait for the next paint, got %d presents", presents)
	}
	if h.frames.Len() != 1 {
		t.Fatalf("expected one deferred draw, got %d", h.frames.Len())
	}

	h.frames.Flush()
	presents, w, hgt := h.sink.Snapshot()
	if presents != 1 || w != 100 || hgt != 75 {
		t.Fatalf("present: count=%d size=%dx%d want 1 at 100x75", presents, w, hgt)
	}
	if h.sched.State() != StateIdle {
		t.Fatalf("state after draw: %s", h.sched.State())
	}
	if st := h.session.Stats(); st.Composites != 1 {
		t.Fatalf("coalesced resizes should composite once, got %+v", st)
	}
}

func TestSchedulerCacheReuseAcrossDraws(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 400, 300)
	ctx := context.Background()

	h.sched.Observe(vp(100, 75), h.at(0))
	h.sched.Tick(ctx, h.at(150*time.Millisecond))
	h.frames.Flush()

	h.sched.Observe(vp(100, 75), h.at(time.Second))
	h.sched.Tick(ctx, h.at(time.Second+150*time.Millisecond))
	h.frames.Flush()

	st := h.session.Stats()
	if st.Composites != 1 || st.Resamples != 1 {
		t.Fatalf("same size twice should compute once, got %+v", st)
	}

	h.sched.Observe(vp(50, 40), h.at(2*time.Second))
	h.sched.Tick(ctx, h.at(2*time.Second+150*time.Millisecond))
	h.frames.Flush()

	st = h.session.Stats()
	if st.Composites != 2 || st.Resamples != 2 {
		t.Fatalf("resize should recompute, got %+v", st)
	}
	if presents, w, hgt := h.sink.Snapshot(); presents != 3 || w != 50 || hgt != 37 {
		t.Fatalf("present: count=%d size=%dx%d", presents, w, hgt)
	}
}

func TestSchedulerOneDrawInFlight(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 40, 30)
	ctx := context.Background()

	h.sched.Observe(vp(40, 30), h.at(0))
	h.sched.Tick(ctx, h.at(150*time.Millisecond))

	// A resize while computing is held, not queued as a second draw.
	h.sched.Observe(vp(10, 10), h.at(160*time.Millisecond))
	if h.sched.State() != StateComputing {
		t.Fatalf("state: got %s want computing", h.sched.State())
	}
	if h.sched.Tick(ctx, h.at(time.Second)) {
		t.Fatalf("tick while computing must not start another recompute")
	}
	if h.frames.Len() != 1 {
		t.Fatalf("in-flight draws: got %d want 1", h.frames.Len())
	}

	h.frames.Flush()
	if h.sched.State() != StatePending {
		t.Fatalf("held viewport should become pending, got %s", h.sched.State())
	}
	if !h.sched.Tick(ctx, h.at(time.Second)) {
		t.Fatalf("held viewport should recompute")
	}
	h.frames.Flush()
	if presents, w, _ := h.sink.Snapshot(); presents != 2 || w != 10 {
		t.Fatalf("present: count=%d width=%d", presents, w)
	}
}

func TestSchedulerWaitsForMaskAndLayout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0, 0)
	ctx := context.Background()

	h.sched.Observe(vp(0, 0), h.at(0))
	h.sched.Tick(ctx, h.at(time.Second))
	if h.frames.Len() != 0 || h.sched.State() != StateIdle {
		t.Fatalf("zero viewport should defer: frames=%d state=%s", h.frames.Len(), h.sched.State())
	}

	h.sched.Observe(vp(20, 20), h.at(2*time.Second))
	h.sched.Tick(ctx, h.at(3*time.Second))
	if h.frames.Len() != 0 {
		t.Fatalf("no mask loaded should defer")
	}

	if err := h.session.Apply(ctx, h.session.Begin(), sac.MustEncode(filled(4, 9), nil, 2, 2), 0, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	h.sched.Refresh(h.at(4 * time.Second))
	if !h.sched.Tick(ctx, h.at(4*time.Second)) {
		t.Fatalf("refresh should be due immediately")
	}
	h.frames.Flush()
	if presents, _, _ := h.sink.Snapshot(); presents != 1 {
		t.Fatalf("expected a draw once mask and layout are ready, got %d", presents)
	}
}

func TestSchedulerClearsAfterFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 4, 4)
	ctx := context.Background()

	h.sched.Observe(vp(4, 4), h.at(0))
	h.sched.Tick(ctx, h.at(time.Second))
	h.frames.Flush()

	_ = h.session.Fail(ctx, h.session.Begin(), errors.New("fetch failed"))
	h.sched.Refresh(h.at(2 * time.Second))
	h.sched.Tick(ctx, h.at(2*time.Second))
	h.frames.Flush()

	if h.sink.Clears != 1 {
		t.Fatalf("sink should be cleared once the overlay is gone, clears=%d", h.sink.Clears)
	}
}

func TestSchedulerRun(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	if err := s.Apply(context.Background(), s.Begin(), sac.MustEncode(filled(4, 9), nil, 2, 2), 0, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	sink := &MemorySink{}
	sched := NewScheduler(SchedulerConfig{
		Session:     s,
		Sink:        sink,
		QuietWindow: 5 * time.Millisecond,
		Logger:      quietLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	viewports := make(chan mask.Viewport, 1)
	viewports <- vp(2, 2)

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx, viewports, time.Millisecond) }()

	deadline := time.After(time.Second)
	for {
		if presents, _, _ := sink.Snapshot(); presents > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Run never drew")
		case <-time.After(time.Millisecond):
		}
	}
	close(viewports)
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
