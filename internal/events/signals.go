// Package events publishes pipeline signals for decode, render and fetch.
package events

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for pipeline events.
var (
	SignalDecodeComplete = capitan.NewSignal("artorize.decode.complete", "Mask container decoded")
	SignalRenderComplete = capitan.NewSignal("artorize.render.complete", "Overlay composited")
	SignalRenderCacheHit = capitan.NewSignal("artorize.render.cache_hit", "Overlay served from cache")
	SignalFetchComplete  = capitan.NewSignal("artorize.fetch.complete", "Mask fetch finished")
	SignalStaleDropped   = capitan.NewSignal("artorize.load.stale", "Superseded load result dropped")
)

// Keys for typed event data.
var (
	KeySession  = capitan.NewStringKey("session")
	KeyURL      = capitan.NewStringKey("url")
	KeyMode     = capitan.NewStringKey("mode")
	KeySize     = capitan.NewIntKey("size")
	KeyWidth    = capitan.NewIntKey("width")
	KeyHeight   = capitan.NewIntKey("height")
	KeySeq      = capitan.NewIntKey("seq")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

// DecodeComplete reports the outcome of decoding a container.
func DecodeComplete(ctx context.Context, session string, seq uint64, mode string, size int, err error) {
	fields := []capitan.Field{
		KeySession.Field(session),
		KeySeq.Field(int(seq)),
		KeyMode.Field(mode),
		KeySize.Field(size),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalDecodeComplete, fields...)
}

// RenderComplete reports a fresh composite.
func RenderComplete(ctx context.Context, session string, width, height int, duration time.Duration) {
	capitan.Emit(ctx, SignalRenderComplete,
		KeySession.Field(session),
		KeyWidth.Field(width),
		KeyHeight.Field(height),
		KeyDuration.Field(duration),
	)
}

// RenderCacheHit reports a render served from the cache slot.
func RenderCacheHit(ctx context.Context, session string, width, height int) {
	capitan.Emit(ctx, SignalRenderCacheHit,
		KeySession.Field(session),
		KeyWidth.Field(width),
		KeyHeight.Field(height),
	)
}

// FetchComplete reports the outcome of an upstream fetch.
func FetchComplete(ctx context.Context, url string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyURL.Field(url),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalFetchComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalFetchComplete, fields...)
}

// StaleDropped reports a load result discarded because a newer one was applied.
func StaleDropped(ctx context.Context, session string, seq uint64) {
	capitan.Emit(ctx, SignalStaleDropped,
		KeySession.Field(session),
		KeySeq.Field(int(seq)),
	)
}
