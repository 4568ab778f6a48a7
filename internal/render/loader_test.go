package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samcharles93/artorize/internal/fetch"
	"github.com/samcharles93/artorize/pkg/sac"
)

func TestLoaderFetchesAndApplies(t *testing.T) {
	t.Parallel()

	payload := sac.MustEncode(filled(6, 12), nil, 0, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.jpg.sac" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	s := newTestSession()
	l := &Loader{Session: s, Fetcher: fetch.NewClient(5*time.Second, quietLogger())}
	if err := l.Load(context.Background(), srv.URL+"/photo.jpg", 3, 2); err != nil {
		t.Fatalf("load: %v", err)
	}
	f, ok := s.Render(context.Background(), vp(3, 2))
	if !ok || f.Image.Alpha(0) != 12 {
		t.Fatalf("render after load: ok=%v", ok)
	}

	err := l.Load(context.Background(), srv.URL+"/missing.jpg", 3, 2)
	if !errors.Is(err, fetch.ErrFetchFailed) {
		t.Fatalf("missing mask: got %v want fetch failure", err)
	}
	if s.HasMask() {
		t.Fatalf("fetch failure should drop the overlay")
	}
}
