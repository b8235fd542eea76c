package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPdftoppm = "pdftoppm"
	DefaultDPI      = 150
)

// Runner lets tests stub external commands
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Renderer rasterises PDF pages through pdftoppm
type Renderer struct {
	runner   Runner
	pdftoppm string
	dpi      int
}

// NewRenderer creates a page renderer. Empty binary and non-positive dpi
// fall back to the defaults.
func NewRenderer(runner Runner, pdftoppm string, dpi int) *Renderer {
	if runner == nil {
		runner = ExecRunner{}
	}
	if pdftoppm == "" {
		pdftoppm = DefaultPdftoppm
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{runner: runner, pdftoppm: pdftoppm, dpi: dpi}
}

// RenderPages writes each zero-based page index as outDir/page_<n>.png with
// n counted from 1, and returns the written paths in page order.
func (r *Renderer) RenderPages(ctx context.Context, pdfPath, outDir string, pages []int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render folder: %w", err)
	}

	var rendered []string
	for _, idx := range pages {
		path, err := r.renderPage(ctx, pdfPath, outDir, idx+1)
		if err != nil {
			return rendered, err
		}
		rendered = append(rendered, path)
	}
	return rendered, nil
}

func (r *Renderer) renderPage(ctx context.Context, pdfPath, outDir string, pageNr int) (string, error) {
	tmpDir, err := os.MkdirTemp(outDir, ".render-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	n := strconv.Itoa(pageNr)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png -f n -l n <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.pdftoppm, "-r", strconv.Itoa(r.dpi), "-png", "-f", n, "-l", n, pdfPath, prefix)
	if err != nil {
		return "", &OpenError{Op: "render", Path: pdfPath, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(errb)))}
	}

	// pdftoppm pads the page number depending on the page count
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", &OpenError{Op: "render", Path: pdfPath, Err: fmt.Errorf("pdftoppm produced no image for page %d", pageNr)}
	}

	target := filepath.Join(outDir, fmt.Sprintf("page_%d.png", pageNr))
	if err := os.Rename(matches[0], target); err != nil {
		return "", fmt.Errorf("failed to store rendered page: %w", err)
	}
	return target, nil
}
