package render

import (
	"context"

	"github.com/samcharles93/artorize/internal/fetch"
)

// Fetcher retrieves container bytes for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader fetches the mask for an image and installs it into a session.
type Loader struct {
	Session *Session
	Fetcher Fetcher
	Suffix  string
}

// Load fetches the mask that belongs to imageURL. naturalWidth and
// naturalHeight are the image's intrinsic size, used when the container has
// no shape hint. On any failure the session drops its overlay and the error
// is returned for reporting.
func (l *Loader) Load(ctx context.Context, imageURL string, naturalWidth, naturalHeight int) error {
	seq := l.Session.Begin()
	data, err := l.Fetcher.Fetch(ctx, fetch.MaskURL(imageURL, l.Suffix))
	if err != nil {
		return l.Session.Fail(ctx, seq, err)
	}
	return l.Session.Apply(ctx, seq, data, naturalWidth, naturalHeight)
}
