package mask

import (
	"slices"
	"testing"

	"github.com/samcharles93/artorize/pkg/sac"
)

func TestPlanResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		maskW, maskH       int
		vp                 Viewport
		wantW, wantH       int
		wantDownsample     bool
		wantTarW, wantTarH int
	}{
		{
			name: "ratio 4 downsamples", maskW: 4000, maskH: 3000,
			vp:    Viewport{DisplayWidth: 1000, DisplayHeight: 750, PixelDensity: 1},
			wantW: 1000, wantH: 750, wantDownsample: true, wantTarW: 1000, wantTarH: 750,
		},
		{
			name: "ratio 1.5 keeps size", maskW: 1500, maskH: 1125,
			vp:    Viewport{DisplayWidth: 1000, DisplayHeight: 750, PixelDensity: 1},
			wantW: 1500, wantH: 1125, wantTarW: 1000, wantTarH: 750,
		},
		{
			name: "exactly 2 keeps size", maskW: 2000, maskH: 1500,
			vp:    Viewport{DisplayWidth: 1000, DisplayHeight: 750, PixelDensity: 1},
			wantW: 2000, wantH: 1500, wantTarW: 1000, wantTarH: 750,
		},
		{
			name: "density raises target", maskW: 4000, maskH: 3000,
			vp:    Viewport{DisplayWidth: 1000, DisplayHeight: 750, PixelDensity: 2},
			wantW: 4000, wantH: 3000, wantTarW: 2000, wantTarH: 1500,
		},
		{
			name: "fractional display rounds target up", maskW: 400, maskH: 40,
			vp:    Viewport{DisplayWidth: 99.5, DisplayHeight: 99.1, PixelDensity: 1},
			wantW: 100, wantH: 10, wantDownsample: true, wantTarW: 100, wantTarH: 100,
		},
		{
			name: "aspect mismatch uses uniform scale", maskW: 4000, maskH: 1000,
			vp:    Viewport{DisplayWidth: 500, DisplayHeight: 500, PixelDensity: 1},
			wantW: 500, wantH: 125, wantDownsample: true, wantTarW: 500, wantTarH: 500,
		},
		{
			name: "tiny target never yields zero", maskW: 10000, maskH: 3,
			vp:    Viewport{DisplayWidth: 1, DisplayHeight: 1, PixelDensity: 1},
			wantW: 1, wantH: 1, wantDownsample: true, wantTarW: 1, wantTarH: 1,
		},
		{
			name: "density below one is treated as one", maskW: 4000, maskH: 3000,
			vp:    Viewport{DisplayWidth: 1000, DisplayHeight: 750, PixelDensity: 0},
			wantW: 1000, wantH: 750, wantDownsample: true, wantTarW: 1000, wantTarH: 750,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := PlanResolution(tc.maskW, tc.maskH, tc.vp)
			if got.RenderWidth != tc.wantW || got.RenderHeight != tc.wantH || got.Downsample != tc.wantDownsample {
				t.Fatalf("PlanResolution() = %+v, want %dx%d downsample=%v", got, tc.wantW, tc.wantH, tc.wantDownsample)
			}
			if got.TargetWidth != tc.wantTarW || got.TargetHeight != tc.wantTarH {
				t.Fatalf("target = %dx%d, want %dx%d", got.TargetWidth, got.TargetHeight, tc.wantTarW, tc.wantTarH)
			}
		})
	}
}

func TestResampleNearestNeighbour(t *testing.T) {
	t.Parallel()

	src := []int16{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	srcCopy := slices.Clone(src)

	got := Resample(src, 4, 4, 2, 2)
	want := []int16{1, 3, 9, 11}
	if !slices.Equal(got, want) {
		t.Fatalf("downsample: got %v want %v", got, want)
	}
	if !slices.Equal(src, srcCopy) {
		t.Fatalf("source buffer was mutated")
	}

	up := Resample([]int16{-1, 2}, 2, 1, 4, 2)
	wantUp := []int16{-1, -1, 2, 2, -1, -1, 2, 2}
	if !slices.Equal(up, wantUp) {
		t.Fatalf("upsample: got %v want %v", up, wantUp)
	}

	odd := Resample(src, 4, 4, 3, 1)
	if !slices.Equal(odd, []int16{1, 2, 3}) {
		t.Fatalf("non-integer ratio: got %v", odd)
	}

	if got := Resample(src, 4, 4, 0, 0); len(got) != 1 || got[0] != 1 {
		t.Fatalf("zero target should coerce to 1x1, got %v", got)
	}
}

func TestResampleSourceKeepsMono(t *testing.T) {
	t.Parallel()

	out := ResampleSource(sac.Mono{Samples: []int16{1, 2, 3, 4}}, 2, 2, 1, 1)
	m, ok := out.(sac.Mono)
	if !ok {
		t.Fatalf("mono source should stay mono, got %T", out)
	}
	if !slices.Equal(m.Samples, []int16{1}) {
		t.Fatalf("resampled mono: got %v", m.Samples)
	}

	dual := ResampleSource(sac.Dual{A: []int16{1, 2}, B: []int16{3, 4}}, 2, 1, 1, 1)
	d, ok := dual.(sac.Dual)
	if !ok || !slices.Equal(d.A, []int16{1}) || !slices.Equal(d.B, []int16{3}) {
		t.Fatalf("resampled dual: got %#v", dual)
	}
}
