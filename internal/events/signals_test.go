package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/samcharles93/artorize/internal/logger"
)

func TestMain(m *testing.M) {
	capitan.Configure(capitan.WithSyncMode())
	os.Exit(m.Run())
}

type captured struct {
	severity capitan.Severity
	session  string
	url      string
	mode     string
	seq      int
	size     int
	width    int
	height   int
	duration time.Duration
	err      error
}

func capture(t *testing.T, signal capitan.Signal) *[]captured {
	t.Helper()
	var got []captured
	l := capitan.Hook(signal, func(_ context.Context, e *capitan.Event) {
		var c captured
		c.severity = e.Severity()
		c.session, _ = KeySession.From(e)
		c.url, _ = KeyURL.From(e)
		c.mode, _ = KeyMode.From(e)
		c.seq, _ = KeySeq.From(e)
		c.size, _ = KeySize.From(e)
		c.width, _ = KeyWidth.From(e)
		c.height, _ = KeyHeight.From(e)
		c.duration, _ = KeyDuration.From(e)
		c.err, _ = KeyError.From(e)
		got = append(got, c)
	})
	t.Cleanup(l.Close)
	return &got
}

func TestDecodeComplete(t *testing.T) {
	got := capture(t, SignalDecodeComplete)
	bad := errors.New("bad magic")

	DecodeComplete(context.Background(), "s1", 1, "single", 48, nil)
	DecodeComplete(context.Background(), "s1", 2, "", 3, bad)

	if len(*got) != 2 {
		t.Fatalf("captured %d events, want 2", len(*got))
	}
	ok, failed := (*got)[0], (*got)[1]
	if ok.severity != capitan.SeverityInfo || ok.session != "s1" || ok.seq != 1 || ok.mode != "single" || ok.size != 48 || ok.err != nil {
		t.Fatalf("success event: %+v", ok)
	}
	if failed.severity != capitan.SeverityError || failed.seq != 2 || failed.size != 3 || !errors.Is(failed.err, bad) {
		t.Fatalf("failure event: %+v", failed)
	}
}

func TestRenderEvents(t *testing.T) {
	done := capture(t, SignalRenderComplete)
	hits := capture(t, SignalRenderCacheHit)

	RenderComplete(context.Background(), "s1", 400, 300, 2*time.Millisecond)
	RenderCacheHit(context.Background(), "s1", 200, 150)

	if len(*done) != 1 || len(*hits) != 1 {
		t.Fatalf("captured %d renders and %d hits, want 1 each", len(*done), len(*hits))
	}
	r := (*done)[0]
	if r.session != "s1" || r.width != 400 || r.height != 300 || r.duration != 2*time.Millisecond {
		t.Fatalf("render event: %+v", r)
	}
	h := (*hits)[0]
	if h.width != 200 || h.height != 150 {
		t.Fatalf("cache hit event: %+v", h)
	}
}

func TestFetchComplete(t *testing.T) {
	got := capture(t, SignalFetchComplete)
	const url = "http://example.test/a.jpg.sac"

	FetchComplete(context.Background(), url, 1024, 10*time.Millisecond, nil)
	FetchComplete(context.Background(), url, 0, time.Millisecond, errors.New("status 404"))

	if len(*got) != 2 {
		t.Fatalf("captured %d events, want 2", len(*got))
	}
	if e := (*got)[0]; e.url != url || e.size != 1024 || e.err != nil {
		t.Fatalf("success event: %+v", e)
	}
	if e := (*got)[1]; e.severity != capitan.SeverityError || e.err == nil || e.err.Error() != "status 404" {
		t.Fatalf("failure event: %+v", e)
	}
}

func TestStaleDropped(t *testing.T) {
	got := capture(t, SignalStaleDropped)

	StaleDropped(context.Background(), "s1", 3)

	if len(*got) != 1 || (*got)[0].session != "s1" || (*got)[0].seq != 3 {
		t.Fatalf("stale events: %+v", *got)
	}
}

func TestLogFailures(t *testing.T) {
	var buf bytes.Buffer
	stop := LogFailures(logger.New(slog.NewTextHandler(&buf, nil)))

	ctx := context.Background()
	DecodeComplete(ctx, "s9", 4, "dual", 60, nil)
	DecodeComplete(ctx, "s9", 5, "", 7, errors.New("bad magic"))
	FetchComplete(ctx, "http://example.test/b.sac", 0, time.Millisecond, errors.New("status 502"))
	RenderComplete(ctx, "s9", 10, 10, time.Millisecond)
	stop()

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2:\n%s", len(lines), out)
	}
	for _, want := range []string{
		"signal=artorize.decode.complete",
		"session=s9",
		"seq=5",
		"size=7",
		`error="bad magic"`,
	} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("decode failure line missing %q: %s", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "signal=artorize.fetch.complete") || !strings.Contains(lines[1], `error="status 502"`) {
		t.Fatalf("fetch failure line: %s", lines[1])
	}

	DecodeComplete(ctx, "s9", 6, "", 7, errors.New("after stop"))
	if strings.Contains(buf.String(), "after stop") {
		t.Fatal("events logged after stop")
	}
}
