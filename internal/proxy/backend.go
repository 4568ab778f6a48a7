package proxy

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/samcharles93/artorize/internal/fetch"
)

// ErrNotFound is returned by backends when the key does not exist.
var ErrNotFound = errors.New("proxy: object not found")

// Backend is the storage the proxy forwards to.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// cleanKey normalises a request key and rejects traversal.
func cleanKey(key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", false
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// DirBackend serves objects from a directory.
type DirBackend struct {
	Root string
}

func (b DirBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, ok := cleanKey(key)
	if !ok {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(b.Root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// HTTPBackend forwards GETs to an upstream base URL under a rate limit.
type HTTPBackend struct {
	BaseURL string
	Client  *fetch.Client
	Limiter *rate.Limiter
}

// NewHTTPBackend returns a backend that issues at most rps upstream requests
// per second. rps <= 0 disables the limit.
func NewHTTPBackend(baseURL string, client *fetch.Client, rps float64) *HTTPBackend {
	limit := rate.Inf
	burst := 0
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &HTTPBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		Limiter: rate.NewLimiter(limit, burst),
	}
}

func (b *HTTPBackend) Get(ctx context.Context, key string) ([]byte, error) {
	key, ok := cleanKey(key)
	if !ok {
		return nil, ErrNotFound
	}
	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	data, err := b.Client.Fetch(ctx, b.BaseURL+"/"+key)
	var se *fetch.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	return data, err
}
