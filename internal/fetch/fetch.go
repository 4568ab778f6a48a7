// Package fetch retrieves mask containers from the upstream that serves the
// degraded images.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/samcharles93/artorize/internal/events"
	"github.com/samcharles93/artorize/internal/logger"
)

// DefaultSuffix is appended to an image URL to form its mask URL.
const DefaultSuffix = ".sac"

// DefaultMaxBytes caps the size of a fetched container.
const DefaultMaxBytes int64 = 256 << 20

// ErrFetchFailed is the root of every transport or HTTP failure. It never
// wraps a container format error.
var ErrFetchFailed = errors.New("fetch failed")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrFetchFailed
}

type transportError struct {
	url string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.url, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrFetchFailed, e.err}
}

// MaskURL appends suffix to the path of imageURL, keeping any query string.
func MaskURL(imageURL, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Opaque != "" {
		return imageURL + suffix
	}
	u.Path += suffix
	if u.RawPath != "" {
		u.RawPath += suffix
	}
	return u.String()
}

// Client performs idempotent GETs for mask containers.
type Client struct {
	HTTP     *http.Client
	MaxBytes int64
	Log      logger.Logger
}

// NewClient returns a Client with the given request timeout.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
		Log:      log,
	}
}

// Fetch downloads the container at rawURL. A zstd Content-Encoding is decoded
// transparently. All failures satisfy errors.Is(err, ErrFetchFailed).
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	data, err := c.fetch(ctx, rawURL)
	events.FetchComplete(ctx, rawURL, len(data), time.Since(start), err)
	if err != nil {
		c.logger().Warn("mask fetch failed", "url", rawURL, "err", err)
		return nil, err
	}
	c.logger().Debug("mask fetched", "url", rawURL, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &transportError{url: rawURL, err: err}
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("Accept-Encoding", "zstd, identity")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &transportError{url: rawURL, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "zstd") {
		dec, err := zstd.NewReader(resp.Body, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
		if err != nil {
			return nil, &transportError{url: rawURL, err: err}
		}
		defer dec.Close()
		body = dec
	}

	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, &transportError{url: rawURL, err: err}
	}
	if int64(len(data)) > limit {
		return nil, &transportError{url: rawURL, err: fmt.Errorf("body exceeds %d bytes", limit)}
	}
	return data, nil
}

func (c *Client) logger() logger.Logger {
	if c.Log == nil {
		return logger.Default()
	}
	return c.Log
}
