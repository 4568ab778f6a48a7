package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	envOutDir   = "ARTORIZE_OUT_DIR"
	envMasksDir = "ARTORIZE_MASKS_DIR"
)

// resolveOut picks the output path for a generated file. An explicit flag
// wins, then $ARTORIZE_OUT_DIR, then ./out. The parent directory is created.
func resolveOut(name, outFlag, ext string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}

	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return "", true, fmt.Errorf("invalid output name: %q", name)
	}

	outDir := strings.TrimSpace(os.Getenv(envOutDir))
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}
	outPath := filepath.Join(outDir, name+ext)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}

func resolveMasksDir(flag string) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return filepath.Clean(dir)
	}
	return strings.TrimSpace(os.Getenv(envMasksDir))
}

func isMaskFile(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".sac") || strings.HasSuffix(name, ".sac.zst")
}

// discoverMasks lists the container files directly inside dir, sorted.
func discoverMasks(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("masks directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("masks path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	masks := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !isMaskFile(e.Name()) {
			continue
		}
		masks = append(masks, filepath.Join(dir, e.Name()))
	}
	sort.Strings(masks)
	return masks, nil
}

// expandMaskArgs replaces directory arguments with the masks they contain.
func expandMaskArgs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, arg)
			continue
		}
		masks, err := discoverMasks(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, masks...)
	}
	return out, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseSize parses "WIDTHxHEIGHT". Fractional sizes are allowed because
// display boxes are measured in logical pixels.
func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.ParseFloat(hs, 64)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
