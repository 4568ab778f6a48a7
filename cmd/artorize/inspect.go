package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/logger"
	"github.com/samcharles93/artorize/pkg/sac"
)

type inspectResult struct {
	Path    string       `json:"path"`
	Summary *sac.Summary `json:"summary,omitempty"`
	Error   string       `json:"error,omitempty"`
	Kind    string       `json:"kind,omitempty"`
}

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print header fields and sample statistics of .sac containers",
		ArgsUsage: "FILE|DIR...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit JSON instead of text",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cmd.NArg() == 0 {
				return errors.New("inspect: at least one FILE or DIR is required")
			}
			paths, err := expandMaskArgs(cmd.Args().Slice())
			if err != nil {
				return err
			}

			results := make([]inspectResult, 0, len(paths))
			failed := 0
			for _, path := range paths {
				res := inspectFile(path)
				if res.Error != "" {
					failed++
					log.Warn("inspect failed", "path", path, "err", res.Error)
				}
				results = append(results, res)
			}

			w := cmd.Root().Writer
			if asJSON {
				err = writeInspectJSON(w, results)
			} else {
				err = writeInspectText(w, results)
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("inspect: %d of %d containers invalid", failed, len(results))
			}
			return nil
		},
	}
}

func inspectFile(path string) inspectResult {
	res := inspectResult{Path: path}
	st, err := os.Stat(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	compressed, err := sniffCompressed(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	c, err := sac.Open(path)
	if err != nil {
		res.Error = err.Error()
		if kind := sac.KindOf(err); kind != 0 {
			res.Kind = kind.String()
		}
		return res
	}
	sum := sac.Summarize(c, int(st.Size()), compressed)
	res.Summary = &sum
	return res
}

func sniffCompressed(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()
	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return sac.IsCompressed(head[:n]), nil
}

func writeInspectJSON(w io.Writer, results []inspectResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

func writeInspectText(w io.Writer, results []inspectResult) error {
	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeSummaryText(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaryText(w io.Writer, r inspectResult) error {
	if r.Summary == nil {
		_, err := fmt.Fprintf(w, "%s: invalid (%s)\n", r.Path, r.Error)
		return err
	}
	s := r.Summary
	encoding := "raw"
	if s.Compressed {
		encoding = "zstd"
	}
	lines := []string{
		fmt.Sprintf("SAC container: %s (%s, %s)", r.Path, formatBytes(uint64(s.Bytes)), encoding),
		fmt.Sprintf("  %-12s %s", "magic", s.Magic),
		fmt.Sprintf("  %-12s %s (flags=0x%02x, arrays=%d)", "mode", s.Mode, s.Flags, s.ArrayCount),
		fmt.Sprintf("  %-12s %d (int16)", "dtype", s.DType),
		fmt.Sprintf("  %-12s %d / %d", "lengths", s.LengthA, s.LengthB),
		fmt.Sprintf("  %-12s %s", "shape", shapeText(s.Width, s.Height)),
		fmt.Sprintf("  %-12s %s", "A", statsText(s.A)),
	}
	if s.B != nil {
		lines = append(lines, fmt.Sprintf("  %-12s %s", "B", statsText(*s.B)))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func shapeText(w, h uint32) string {
	if w == 0 && h == 0 {
		return "none (uses image natural size)"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func statsText(st sac.Stats) string {
	return fmt.Sprintf("min=%d max=%d mean|v|=%.2f zero=%d", st.Min, st.Max, st.MeanAbs, st.Zero)
}
