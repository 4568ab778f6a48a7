package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samcharles93/artorize/internal/fetch"
	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/internal/mask"
	"github.com/samcharles93/artorize/internal/render"
	"github.com/samcharles93/artorize/pkg/sac"
)

func testSession() *render.Session {
	return render.NewSession(render.Config{Options: mask.DefaultOptions(), Logger: logger.Discard()})
}

func solidBase(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return img
}

func encodeMask(t *testing.T) []byte {
	t.Helper()
	a := []int16{255, 255, 0, 0, 255, 255, 0, 0}
	data, err := sac.Encode(a, nil, 4, 2)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	return img
}

func TestRenderOnceWithOverlay(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	if err := session.Apply(ctx, session.Begin(), encodeMask(t), 0, 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var out bytes.Buffer
	vp := mask.Viewport{DisplayWidth: 8, DisplayHeight: 4, PixelDensity: 1}
	written, err := renderOnce(ctx, session, vp, solidBase(8, 4), &out, logger.Discard())
	if err != nil || !written {
		t.Fatalf("renderOnce = %v, %v", written, err)
	}

	img := decodePNG(t, out.Bytes())
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	// The left half is fully masked white, the right half shows the base.
	left := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	right := color.NRGBAModel.Convert(img.At(7, 0)).(color.NRGBA)
	if left.G < 200 {
		t.Fatalf("left pixel not covered by overlay: %+v", left)
	}
	if right.R < 190 || right.G > 10 {
		t.Fatalf("right pixel should be base only: %+v", right)
	}
}

func TestRenderOnceDegradedOnly(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	_ = session.Fail(ctx, session.Begin(), fetch.ErrFetchFailed)

	var out bytes.Buffer
	vp := mask.Viewport{DisplayWidth: 6, DisplayHeight: 3, PixelDensity: 2}
	written, err := renderOnce(ctx, session, vp, solidBase(3, 3), &out, logger.Discard())
	if err != nil || !written {
		t.Fatalf("renderOnce = %v, %v", written, err)
	}
	img := decodePNG(t, out.Bytes())
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Fatalf("degraded output should be device sized, got %v", b)
	}

	out.Reset()
	written, err = renderOnce(ctx, testSession(), vp, nil, &out, logger.Discard())
	if err != nil || written || out.Len() != 0 {
		t.Fatalf("nothing to render: written=%v err=%v len=%d", written, err, out.Len())
	}
}

func TestLoadMaskFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.sac")
	if err := os.WriteFile(path, encodeMask(t), 0o644); err != nil {
		t.Fatal(err)
	}

	session := testSession()
	if err := loadMask(ctx, session, fetch.NewClient(time.Second, logger.Discard()), path, "", 0, 0); err != nil {
		t.Fatalf("loadMask: %v", err)
	}
	if !session.HasMask() {
		t.Fatal("mask not installed")
	}

	if err := loadMask(ctx, session, nil, filepath.Join(t.TempDir(), "missing.sac"), "", 0, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
	if session.HasMask() {
		t.Fatal("failed load should drop the overlay")
	}

	if err := loadMask(ctx, testSession(), nil, "", "local.png", 0, 0); err == nil {
		t.Fatal("expected error without mask or image URL")
	}
}

func TestLoadMaskDerivedFromImageURL(t *testing.T) {
	body := encodeMask(t)
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.RequestURI()
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	prev := maskSuffix
	maskSuffix = ".sac"
	defer func() { maskSuffix = prev }()

	session := testSession()
	client := fetch.NewClient(time.Second, logger.Discard())
	if err := loadMask(context.Background(), session, client, "", srv.URL+"/art/p.jpg?v=2", 0, 0); err != nil {
		t.Fatalf("loadMask: %v", err)
	}
	if requested != "/art/p.jpg.sac?v=2" {
		t.Fatalf("requested %q", requested)
	}
	if !session.HasMask() {
		t.Fatal("mask not installed")
	}
}

func TestOverlayOptions(t *testing.T) {
	prevMode, prevColor, prevOpacity := colorMode, overlayColor, opacity
	defer func() { colorMode, overlayColor, opacity = prevMode, prevColor, prevOpacity }()

	colorMode, overlayColor, opacity = "diagnostic", "#0f0", 0.5
	opts, err := overlayOptions()
	if err != nil {
		t.Fatalf("overlayOptions: %v", err)
	}
	if opts.Mode != mask.ModeDiagnostic || opts.Color != (color.NRGBA{G: 255, A: 255}) || opts.Opacity != 0.5 {
		t.Fatalf("opts = %+v", opts)
	}

	colorMode = "sepia"
	if _, err := overlayOptions(); err == nil {
		t.Fatal("expected error for unknown colour mode")
	}
}
