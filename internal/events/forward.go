package events

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/samcharles93/artorize/internal/logger"
)

const drainTimeout = 2 * time.Second

// LogFailures forwards error-severity decode and fetch events to log. The
// returned function drains queued events and detaches the observer.
func LogFailures(log logger.Logger) (stop func()) {
	obs := capitan.Observe(func(_ context.Context, e *capitan.Event) {
		if e.Severity() != capitan.SeverityError {
			return
		}
		log.Error("pipeline step failed", eventArgs(e)...)
	}, SignalDecodeComplete, SignalFetchComplete)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		_ = obs.Drain(ctx)
		obs.Close()
	}
}

// eventArgs flattens event fields into sorted key/value pairs.
func eventArgs(e *capitan.Event) []any {
	fields := e.Fields()
	slices.SortFunc(fields, func(a, b capitan.Field) int {
		return strings.Compare(a.Key().Name(), b.Key().Name())
	})
	args := make([]any, 0, 2+2*len(fields))
	args = append(args, "signal", e.Signal().Name())
	for _, f := range fields {
		args = append(args, f.Key().Name(), f.Value())
	}
	return args
}
