package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/artorize/pkg/sac"
)

func TestInspectFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.sac")
	zst := filepath.Join(dir, "packed.sac.zst")
	junk := filepath.Join(dir, "junk.sac")

	a := []int16{-3, 0, 3, 9}
	if err := sac.WriteFile(raw, a, nil, 2, 2, false); err != nil {
		t.Fatal(err)
	}
	if err := sac.WriteFile(zst, a, []int16{1, 1, 1, 1}, 2, 2, true); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(junk, []byte("SAC1\x00\x02"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := inspectFile(raw)
	if r.Summary == nil || r.Summary.Mode != "single" || r.Summary.Compressed {
		t.Fatalf("raw = %+v", r)
	}
	if r.Summary.A.Min != -3 || r.Summary.A.Max != 9 || r.Summary.A.Zero != 1 {
		t.Fatalf("raw stats = %+v", r.Summary.A)
	}

	z := inspectFile(zst)
	if z.Summary == nil || !z.Summary.Compressed || z.Summary.B == nil {
		t.Fatalf("zst = %+v", z)
	}

	j := inspectFile(junk)
	if j.Summary != nil || j.Kind != "LengthMismatch" {
		t.Fatalf("junk = %+v", j)
	}
}

func TestInspectOutput(t *testing.T) {
	t.Parallel()
	sum := sac.Summary{
		Magic: "SAC1", Mode: "dual", DType: 1, ArrayCount: 2,
		LengthA: 4, LengthB: 4, Width: 2, Height: 2, Bytes: 40,
		A: sac.Stats{Min: -1, Max: 5},
		B: &sac.Stats{Max: 2},
	}
	results := []inspectResult{
		{Path: "a.sac", Summary: &sum},
		{Path: "b.sac", Error: "bad magic", Kind: "BadMagic"},
	}

	var text bytes.Buffer
	if err := writeInspectText(&text, results); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"SAC container: a.sac (40 B, raw)", "shape        2x2", "B            min=0 max=2", "b.sac: invalid (bad magic)"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var out bytes.Buffer
	if err := writeInspectJSON(&out, results); err != nil {
		t.Fatal(err)
	}
	var decoded []inspectResult
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Summary.Width != 2 || decoded[1].Kind != "BadMagic" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestShapeText(t *testing.T) {
	t.Parallel()
	if got := shapeText(0, 0); !strings.HasPrefix(got, "none") {
		t.Fatalf("shapeText(0,0) = %q", got)
	}
	if got := shapeText(400, 300); got != "400x300" {
		t.Fatalf("shapeText = %q", got)
	}
}
